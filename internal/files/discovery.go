package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Table file extensions in lookup order
var TableExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Ext returns the lower-cased extension
func (f FileInfo) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// BasePath returns the directory discovery is rooted at
func (d *Discovery) BasePath() string {
	return d.basePath
}

// Locate finds the file of a table. A name with a known extension must
// match exactly; a bare stem is tried with each of TableExtensions, case
// insensitively. The second result is false when nothing matches.
func (d *Discovery) Locate(name string) (FileInfo, bool, error) {
	files, err := d.FindTableFiles()
	if err != nil {
		return FileInfo{}, false, err
	}

	if isTableFile(name) {
		for _, f := range files {
			if strings.EqualFold(f.Name, filepath.Base(name)) {
				return f, true, nil
			}
		}
		// Names with directories are resolved against the base path.
		if filepath.Base(name) != name {
			return d.stat(name)
		}
		return FileInfo{}, false, nil
	}

	for _, ext := range TableExtensions {
		for _, f := range files {
			if strings.EqualFold(f.Name, name+ext) {
				return f, true, nil
			}
		}
	}
	return FileInfo{}, false, nil
}

func (d *Discovery) stat(name string) (FileInfo, bool, error) {
	full := name
	if !filepath.IsAbs(full) {
		full = filepath.Join(d.basePath, name)
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return FileInfo{}, false, nil
	}
	if err != nil {
		return FileInfo{}, false, fmt.Errorf("failed to stat %s: %w", full, err)
	}
	if info.IsDir() {
		return FileInfo{}, false, nil
	}
	return FileInfo{Path: full, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, true, nil
}

// FindTableFiles finds all CSV and Excel files in the base directory,
// sorted by name. Excel lock files (~$name.xlsx) are skipped.
func (d *Discovery) FindTableFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.basePath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !isTableFile(name) || strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(d.basePath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

func isTableFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TableExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
