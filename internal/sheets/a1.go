package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// rangeRef is a parsed A1 range. Indexes are zero-based; endRow/endCol of
// -1 mean unbounded ("A2:F", "A:J").
type rangeRef struct {
	startRow, startCol int
	endRow, endCol     int
}

// parseRange parses ranges of the forms "A1", "A2:F", "A:J", "A2:F501".
func parseRange(s string) (rangeRef, error) {
	parts := strings.SplitN(s, ":", 2)
	startCol, startRow, err := parseCell(parts[0])
	if err != nil {
		return rangeRef{}, fmt.Errorf("range %q: %w", s, err)
	}
	if startRow < 0 {
		startRow = 0 // "A:J" starts at the first row
	}
	r := rangeRef{startRow: startRow, startCol: startCol, endRow: -1, endCol: -1}
	if len(parts) == 2 {
		endCol, endRow, err := parseCell(parts[1])
		if err != nil {
			return rangeRef{}, fmt.Errorf("range %q: %w", s, err)
		}
		r.endCol = endCol + 1
		if endRow >= 0 {
			r.endRow = endRow + 1
		}
	} else {
		// Single cell.
		r.endCol = startCol + 1
		r.endRow = startRow + 1
	}
	return r, nil
}

// parseCell parses "A2" into (col 0, row 1) or "F" into (col 5, row -1).
func parseCell(s string) (col, row int, err error) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A') + 1
		i++
	}
	if col == 0 {
		return 0, 0, fmt.Errorf("cell %q: missing column", s)
	}
	col--
	if i == len(s) {
		return col, -1, nil
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("cell %q: bad row", s)
	}
	return col, n - 1, nil
}
