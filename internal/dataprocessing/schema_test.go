package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyadpanel/internal/config"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

func TestSchema_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		extra   map[string][]string
		header  []string
		want    map[string]int
		wantErr bool
	}{
		{
			name:   "canonical names",
			table:  config.TableContiguity,
			header: []string{"ccode1", "ccode2", "year", "conttype"},
			want:   map[string]int{ColCCode1: 0, ColCCode2: 1, ColYear: 2, ColContType: 3},
		},
		{
			name:   "aliases case and whitespace",
			table:  config.TableContiguity,
			header: []string{"\ufeffYear", " State1No ", "STATE2NO", "version", "conttype"},
			want:   map[string]int{ColCCode1: 1, ColCCode2: 2, ColYear: 0, ColContType: 4},
		},
		{
			name:   "canonical wins over alias",
			table:  config.TableDisputes,
			header: []string{"strtyr", "year", "statea", "stateb", "hihost"},
			want:   map[string]int{ColYear: 1, ColCCode1: 2, ColCCode2: 3, ColHostility: 4},
		},
		{
			name:   "configured alias",
			table:  config.TableCapabilities,
			extra:  map[string][]string{ColGDP: {"wdi_gdp"}},
			header: []string{"ccode", "year", "wdi_gdp"},
			want:   map[string]int{ColCCode: 0, ColYear: 1, ColGDP: 2},
		},
		{
			name:    "required column missing",
			table:   config.TableRegimes,
			header:  []string{"ccode", "year", "democ"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := SchemaFor(tt.table, tt.extra)
			require.True(t, ok)

			got, err := s.Resolve(tt.header)
			if tt.wantErr {
				assert.True(t, apperrors.IsIntegrity(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaFor_DoesNotMutateDefaults(t *testing.T) {
	_, ok := SchemaFor(config.TableTrade, map[string][]string{ColFlow1: {"x"}})
	require.True(t, ok)

	s, _ := SchemaFor(config.TableTrade, nil)
	for _, c := range s.Columns {
		assert.NotContains(t, c.Aliases, "x")
	}

	_, ok = SchemaFor("polity", nil)
	assert.False(t, ok)
}

func TestRowReader(t *testing.T) {
	r := rowReader{
		table: "test",
		line:  2,
		cols:  map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4},
		cells: []string{" 20 ", "1990.0", "abc", "NA", "1,234.5"},
	}

	n, err := r.key("a")
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = r.key("b")
	require.NoError(t, err)
	assert.Equal(t, 1990, n)

	_, err = r.key("c")
	assert.True(t, apperrors.IsIntegrity(err))

	_, err = r.key("absent")
	assert.True(t, apperrors.IsIntegrity(err))

	assert.Equal(t, domain.None(), r.float("d"))
	assert.Equal(t, domain.None(), r.float("c"))
	assert.Equal(t, domain.Some(1234.5), r.float("e"))
	assert.Equal(t, "1990", r.text("b"))
	assert.Equal(t, "abc", r.text("c"))

	assert.False(t, r.blank())
	assert.True(t, rowReader{cells: []string{"", " "}}.blank())
}
