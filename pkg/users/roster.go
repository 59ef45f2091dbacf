package users

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// RosterResult carries the parsed entries plus per-row warnings. Malformed
// rows are skipped with a warning; they never fail the whole roster.
type RosterResult struct {
	Entries  []Entry
	Warnings []string
}

// ParseRoster reads a CSV roster with columns email,type,role. A header
// row is detected by its first cell and skipped.
func ParseRoster(r io.Reader) (*RosterResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &RosterResult{}
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster: %w", err)
		}
		row++
		if row == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "email") {
			continue
		}
		if len(record) < 3 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: expected 3 columns, got %d", row, len(record)))
			continue
		}

		kind, err := ParseKind(record[1])
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		role, err := ParseRole(record[2])
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		entry := Entry{Email: strings.TrimSpace(record[0]), Kind: kind, Role: role}
		if err := entry.Validate(); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// LoadRoster parses a roster file from disk.
func LoadRoster(path string) (*RosterResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %q: %w", path, err)
	}
	defer f.Close()
	return ParseRoster(f)
}
