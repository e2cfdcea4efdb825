// Package files provides file system operations for input discovery and
// output writing.
//
// Discovery locates the file of each input table in the input directory,
// accepting either a bare stem (contiguity resolves to contiguity.csv or
// contiguity.xlsx) or an explicit file name.
//
// Manager writes outputs atomically through a temporary sibling file.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data/input")
//	info, ok, err := discovery.Locate("contiguity")
//
//	manager := files.NewManager(logger)
//	err = manager.WriteAtomic("/data/output/panel.csv", func(w io.Writer) error {
//	    return writePanel(w)
//	})
package files
