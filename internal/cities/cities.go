// Package cities maps free-text location strings to canonical city keys.
//
// Installation and issue rows carry whatever spelling the field operator
// typed ("Banglore", "bengaluru south", "Gurugram sector 14"), so cities are
// matched against a living alias table rather than an enum. Unrecognized
// inputs become their own lower-cased bucket instead of erroring; the table
// accretes aliases as new misspellings show up in the data.
package cities

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alias maps a canonical city key to its known spellings.
type Alias struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Normalizer resolves free-text city names against an ordered alias table.
// Table order matters: the first canonical entry whose alias matches wins.
type Normalizer struct {
	table []Alias
}

// NewNormalizer builds a normalizer over the given table. Canonical keys and
// aliases are lower-cased once here so lookups stay cheap.
func NewNormalizer(table []Alias) *Normalizer {
	cleaned := make([]Alias, 0, len(table))
	for _, e := range table {
		c := Alias{Canonical: strings.ToLower(strings.TrimSpace(e.Canonical))}
		for _, a := range e.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" {
				c.Aliases = append(c.Aliases, a)
			}
		}
		if c.Canonical != "" {
			cleaned = append(cleaned, c)
		}
	}
	return &Normalizer{table: cleaned}
}

// Canonical resolves a raw location string to its canonical city key.
//
// The input is lower-cased and trimmed, then tested against each alias with
// bidirectional substring containment: a match occurs when the input contains
// the alias or the alias contains the input. When no alias matches, the
// cleaned input itself is the canonical key.
func (n *Normalizer) Canonical(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}

	for _, e := range n.table {
		for _, alias := range append([]string{e.Canonical}, e.Aliases...) {
			if strings.Contains(cleaned, alias) || strings.Contains(alias, cleaned) {
				return e.Canonical
			}
		}
	}
	return cleaned
}

// Table returns the alias table backing the normalizer.
func (n *Normalizer) Table() []Alias { return n.table }

// defaultTable covers the cities and misspellings seen in the operations
// sheets so far. The file-based table extends or replaces it.
var defaultTable = []Alias{
	{Canonical: "bengaluru", Aliases: []string{"bangalore", "banglore", "bengalore", "blr"}},
	{Canonical: "delhi", Aliases: []string{"new delhi", "delhi ncr", "dilli"}},
	{Canonical: "gurugram", Aliases: []string{"gurgaon", "ggn"}},
	{Canonical: "mumbai", Aliases: []string{"bombay", "navi mumbai", "mumbi"}},
	{Canonical: "pune", Aliases: []string{"poona"}},
	{Canonical: "hyderabad", Aliases: []string{"hydrabad", "hyd", "secunderabad"}},
	{Canonical: "chennai", Aliases: []string{"madras", "chenai"}},
	{Canonical: "kolkata", Aliases: []string{"calcutta", "kolkatta"}},
	{Canonical: "ahmedabad", Aliases: []string{"amdavad", "ahmdabad"}},
	{Canonical: "jaipur", Aliases: []string{"jaipure"}},
	{Canonical: "lucknow", Aliases: []string{"lakhnau"}},
	{Canonical: "kochi", Aliases: []string{"cochin", "ernakulam"}},
	{Canonical: "coimbatore", Aliases: []string{"kovai", "coimbatur"}},
	{Canonical: "indore", Aliases: []string{"indor"}},
	{Canonical: "chandigarh", Aliases: []string{"mohali", "panchkula"}},
}

// Default returns a normalizer over the built-in alias table.
func Default() *Normalizer {
	return NewNormalizer(defaultTable)
}

// Load reads an alias table from a YAML file.
func Load(path string) ([]Alias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var table []Alias
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}
	return table, nil
}
