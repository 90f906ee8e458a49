package sheets

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store backed by string grids. It mirrors the
// remote API's range semantics (trailing empties absent on read, writes
// anchored at the range's top-left) so the ledger and register behave
// identically against it. Used by tests and by development runs without
// service credentials.
type Memory struct {
	mu     sync.Mutex
	grids  map[string][][]string
	props  map[string]Props
	styled map[string][]FormatRequest // last BatchFormat per sheet
}

// NewMemory creates an empty in-memory spreadsheet.
func NewMemory() *Memory {
	return &Memory{
		grids:  make(map[string][][]string),
		props:  make(map[string]Props),
		styled: make(map[string][]FormatRequest),
	}
}

func (m *Memory) EnsureSheet(_ context.Context, name string, props Props) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[name]; !ok {
		m.grids[name] = nil
		m.props[name] = props
	}
	return nil
}

func (m *Memory) ReadRange(_ context.Context, name, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	var out [][]string
	for i := r.startRow; i < len(grid); i++ {
		if r.endRow >= 0 && i >= r.endRow {
			break
		}
		row := grid[i]
		end := len(row)
		if r.endCol >= 0 && r.endCol < end {
			end = r.endCol
		}
		var cells []string
		if r.startCol < end {
			cells = append([]string(nil), row[r.startCol:end]...)
		}
		// Trailing empty cells are absent, as in the remote API.
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	// So are trailing empty rows.
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *Memory) WriteRange(_ context.Context, name, rng string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r, err := parseRange(rng)
	if err != nil {
		return err
	}
	for i, row := range rows {
		tr := r.startRow + i
		for j, cell := range row {
			tc := r.startCol + j
			grid = setCell(grid, tr, tc, cell)
		}
	}
	m.grids[name] = grid
	return nil
}

func (m *Memory) ClearRange(_ context.Context, name, rng string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r, err := parseRange(rng)
	if err != nil {
		return err
	}
	for i := r.startRow; i < len(grid); i++ {
		if r.endRow >= 0 && i >= r.endRow {
			break
		}
		for j := r.startCol; j < len(grid[i]); j++ {
			if r.endCol >= 0 && j >= r.endCol {
				break
			}
			grid[i][j] = ""
		}
	}
	return nil
}

func (m *Memory) AppendRows(ctx context.Context, name, rng string, rows [][]string) error {
	m.mu.Lock()
	start := len(m.grids[name])
	m.mu.Unlock()
	return m.WriteRange(ctx, name, fmt.Sprintf("A%d", start+1), rows)
}

func (m *Memory) BatchFormat(_ context.Context, name string, reqs []FormatRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.styled[name] = append([]FormatRequest(nil), reqs...)
	return nil
}

func (m *Memory) BatchSort(_ context.Context, name string, startRow, startCol, endCol, byColumn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if startRow >= len(grid) {
		return nil
	}
	body := grid[startRow:]
	sort.SliceStable(body, func(i, j int) bool {
		return cellAt(body[i], byColumn) < cellAt(body[j], byColumn)
	})
	return nil
}

func (m *Memory) CopyFormat(_ context.Context, src, dst string, rows, cols int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styled[dst] = append([]FormatRequest(nil), m.styled[src]...)
	return nil
}

// Formats returns the formats last applied to a sheet, for test assertions.
func (m *Memory) Formats(name string) []FormatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FormatRequest(nil), m.styled[name]...)
}

func setCell(grid [][]string, row, col int, value string) [][]string {
	for len(grid) <= row {
		grid = append(grid, nil)
	}
	for len(grid[row]) <= col {
		grid[row] = append(grid[row], "")
	}
	grid[row][col] = value
	return grid
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
