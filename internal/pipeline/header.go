// Package pipeline provides the shared row-processing stages used by every
// report: header resolution, row filtering, and drop-reason accounting.
//
// Sheet layouts drift as operators add and rename columns, so nothing here
// assumes fixed indices: columns are located by name per request and every
// dropped row is attributed to exactly one reason for the debug payloads.
package pipeline

import (
	"fmt"
	"strings"
)

// Field describes one semantically required column.
type Field struct {
	// Name is the semantic field name reported in diagnostics.
	Name string
	// Exact lists header spellings matched exactly after trimming.
	Exact []string
	// Contains lists case-insensitive substring cues tried when no exact
	// spelling matches.
	Contains []string
}

// MissingColumnsError reports required fields that could not be located.
// It carries the raw header row because the fix is external: someone has to
// compare the expected names against what the sheet actually says.
type MissingColumnsError struct {
	Missing []string       `json:"missing"`
	Header  []string       `json:"header"`
	Found   map[string]int `json:"found"`
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Resolve locates each field's column index in the header row.
//
// For each field, every header cell is first checked for an exact (trimmed)
// match against the field's spellings; if none matches, cells are re-scanned
// for a case-insensitive substring containing one of the cues. The first
// matching cell in scan order wins. If any field stays unresolved, Resolve
// returns a *MissingColumnsError naming all of them; callers must not proceed
// with a partial map.
func Resolve(header []string, fields []Field) (map[string]int, error) {
	found := make(map[string]int, len(fields))
	var missing []string

	for _, f := range fields {
		idx := resolveField(header, f)
		if idx < 0 {
			missing = append(missing, f.Name)
			continue
		}
		found[f.Name] = idx
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Header: header, Found: found}
	}
	return found, nil
}

func resolveField(header []string, f Field) int {
	for i, cell := range header {
		trimmed := strings.TrimSpace(cell)
		for _, want := range f.Exact {
			if trimmed == want {
				return i
			}
		}
	}

	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if lower == "" {
			continue
		}
		for _, cue := range f.Contains {
			if strings.Contains(lower, strings.ToLower(cue)) {
				return i
			}
		}
	}

	return -1
}
