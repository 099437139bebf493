package catalog

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Rule describes per-dataset processing overrides, keyed on the catalog
// file name. Rules are evaluated in order and the first match wins.
type Rule struct {
	// Match conditions. Empty conditions always hold.
	Prefix      string   `yaml:"prefix,omitempty"`
	Exact       string   `yaml:"exact,omitempty"`
	Contains    string   `yaml:"contains,omitempty"`
	NotContains []string `yaml:"not_contains,omitempty"`

	// ValidFilePattern filters the dataset's files by base name.
	ValidFilePattern string `yaml:"valid_file_pattern,omitempty"`

	// Aggregation selects a non-default aggregation strategy.
	Aggregation string `yaml:"aggregation,omitempty"`

	// FacetPatterns derives the file pattern from one facet of the
	// dot-separated catalog name instead of stating it literally.
	FacetPatterns *FacetPatterns `yaml:"facet_patterns,omitempty"`
}

// FacetPatterns maps the value of one name facet to a file pattern.
type FacetPatterns struct {
	Facet    int               `yaml:"facet"`
	Patterns map[string]string `yaml:"patterns"`
}

// Overrides are the resolved options a matched rule contributes.
type Overrides struct {
	ValidFilePattern string
	Aggregation      string
}

func (r Rule) matches(basename string) bool {
	if r.Exact != "" && basename != r.Exact {
		return false
	}
	if r.Prefix != "" && !strings.HasPrefix(basename, r.Prefix) {
		return false
	}
	if r.Contains != "" && !strings.Contains(basename, r.Contains) {
		return false
	}
	for _, s := range r.NotContains {
		if strings.Contains(basename, s) {
			return false
		}
	}
	return true
}

func (r Rule) overrides(basename string) (Overrides, error) {
	o := Overrides{ValidFilePattern: r.ValidFilePattern, Aggregation: r.Aggregation}
	if r.FacetPatterns != nil {
		facets := strings.Split(basename, ".")
		if r.FacetPatterns.Facet >= len(facets) {
			return o, fmt.Errorf("rule needs facet %d but %q has %d facets",
				r.FacetPatterns.Facet, basename, len(facets))
		}
		value := facets[r.FacetPatterns.Facet]
		pattern, ok := r.FacetPatterns.Patterns[value]
		if !ok {
			return o, fmt.Errorf("no file pattern for facet value %q in %q", value, basename)
		}
		o.ValidFilePattern = pattern
	}
	return o, nil
}

// MatchRule resolves the overrides for a catalog file name against an
// ordered rule list. A name matching no rule gets empty overrides.
func MatchRule(rules []Rule, basename string) (Overrides, error) {
	for _, r := range rules {
		if r.matches(basename) {
			return r.overrides(basename)
		}
	}
	return Overrides{}, nil
}

// LoadRules reads a YAML rule file. A missing path yields the built-in
// default rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return rules, nil
}

// DefaultRules covers the known special-case datasets: directories that mix
// several products and need a file filter, and products that need a
// non-default aggregation strategy.
func DefaultRules() []Rule {
	return []Rule{
		{
			// Aerosol files have no time variable, so the aggregation
			// has to synthesise the time coordinate.
			Contains:    "AEROSOL",
			Aggregation: AggregationAerosol,
		},
		{
			Prefix: "esacci.OC.",
			FacetPatterns: &FacetPatterns{
				Facet: 2,
				Patterns: map[string]string{
					"day":    "geographic.*daily",
					"mon":    "geographic.*monthly",
					"yr":     "geographic.*annual",
					"8-days": "geographic.*8day",
					"5-days": "geographic.*5day",
				},
			},
		},
		{
			Exact:            "esacci.GHG.day.L2.CH4.TANSO-FTS.GOSAT.GOSAT.v2-3-6.r1.v20160427.xml",
			ValidFilePattern: "SRPR",
		},
		{
			Prefix:           "esacci.SEAICE.",
			NotContains:      []string{".NH.", ".SH."},
			ValidFilePattern: "NorthernHemisphere",
		},
	}
}
