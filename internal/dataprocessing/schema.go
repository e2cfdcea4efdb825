package dataprocessing

import (
	"slices"
	"strings"

	"dyadpanel/internal/config"
	apperrors "dyadpanel/internal/errors"
)

// Canonical column names
const (
	ColCCode     = "ccode"
	ColCCode1    = "ccode1"
	ColCCode2    = "ccode2"
	ColYear      = "year"
	ColStartYear = "start_year"
	ColEndYear   = "end_year"
	ColContType  = "conttype"
	ColHostility = "hihost"
	ColDisputeID = "dispnum"
	ColFlow1     = "flow1"
	ColFlow2     = "flow2"
	ColCINC      = "cinc"
	ColGDP       = "gdp"
	ColPolity    = "polity2"
)

// Column is one canonical column and the source names it may appear under
type Column struct {
	Name     string
	Required bool
	Aliases  []string
}

// Schema maps a source table onto its canonical columns
type Schema struct {
	Table   string
	Columns []Column
}

// Built-in schemas with the column names used by the common releases of
// each dataset.
var defaultSchemas = map[string]Schema{
	config.TableMajorPowers: {Table: config.TableMajorPowers, Columns: []Column{
		{Name: ColCCode, Required: true},
		{Name: ColStartYear, Required: true, Aliases: []string{"styear", "startyear", "start"}},
		{Name: ColEndYear, Required: true, Aliases: []string{"endyear", "end"}},
	}},
	config.TableContiguity: {Table: config.TableContiguity, Columns: []Column{
		{Name: ColCCode1, Required: true, Aliases: []string{"state1no", "statelno", "statea"}},
		{Name: ColCCode2, Required: true, Aliases: []string{"state2no", "statehno", "stateb"}},
		{Name: ColYear, Required: true},
		{Name: ColContType, Required: true, Aliases: []string{"type", "contiguity"}},
	}},
	config.TableDisputes: {Table: config.TableDisputes, Columns: []Column{
		{Name: ColCCode1, Required: true, Aliases: []string{"statea", "state1no", "ccodea"}},
		{Name: ColCCode2, Required: true, Aliases: []string{"stateb", "state2no", "ccodeb"}},
		{Name: ColYear, Required: true, Aliases: []string{"strtyr"}},
		{Name: ColHostility, Required: true, Aliases: []string{"hostlev", "hostility"}},
		{Name: ColDisputeID, Aliases: []string{"disno", "dispnum3", "mid"}},
	}},
	config.TableTrade: {Table: config.TableTrade, Columns: []Column{
		{Name: ColCCode1, Required: true, Aliases: []string{"importer1"}},
		{Name: ColCCode2, Required: true, Aliases: []string{"importer2"}},
		{Name: ColYear, Required: true},
		{Name: ColFlow1, Aliases: []string{"smoothflow1"}},
		{Name: ColFlow2, Aliases: []string{"smoothflow2"}},
	}},
	config.TableCapabilities: {Table: config.TableCapabilities, Columns: []Column{
		{Name: ColCCode, Required: true},
		{Name: ColYear, Required: true},
		{Name: ColCINC, Aliases: []string{"cinc_score"}},
		{Name: ColGDP, Aliases: []string{"rgdp", "realgdp", "gdp_pwt"}},
	}},
	config.TableRegimes: {Table: config.TableRegimes, Columns: []Column{
		{Name: ColCCode, Required: true},
		{Name: ColYear, Required: true},
		{Name: ColPolity, Required: true, Aliases: []string{"polity", "regime"}},
	}},
	config.TableAlliances: {Table: config.TableAlliances, Columns: []Column{
		{Name: ColCCode1, Required: true},
		{Name: ColCCode2, Required: true},
		{Name: ColStartYear, Required: true, Aliases: []string{"dyad_st_year", "styear"}},
	}},
}

// SchemaFor returns the schema of table extended with configured aliases.
func SchemaFor(table string, extra map[string][]string) (Schema, bool) {
	base, ok := defaultSchemas[table]
	if !ok {
		return Schema{}, false
	}
	s := Schema{Table: base.Table, Columns: make([]Column, len(base.Columns))}
	for i, c := range base.Columns {
		c.Aliases = append(slices.Clone(c.Aliases), extra[c.Name]...)
		s.Columns[i] = c
	}
	return s, true
}

// Resolve maps the canonical columns onto header positions. Matching is
// case-insensitive and ignores surrounding whitespace; the canonical name
// is tried before its aliases. A missing required column is an integrity
// error; missing optional columns are simply absent from the map.
func (s Schema) Resolve(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	resolved := make(map[string]int, len(s.Columns))
	for _, c := range s.Columns {
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			if i, ok := positions[normalizeHeader(name)]; ok {
				resolved[c.Name] = i
				break
			}
		}
		if _, ok := resolved[c.Name]; !ok && c.Required {
			return nil, apperrors.NewIntegrityError("required column missing", nil).
				WithContext("table", s.Table).
				WithContext("column", c.Name).
				WithContext("aliases", strings.Join(c.Aliases, "|"))
		}
	}
	return resolved, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}
