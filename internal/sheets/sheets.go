// Package sheets wraps the spreadsheet's coarse range-level API behind a
// narrow contract. Higher layers address sheets by logical name and row
// offsets only; nothing above this package knows about the Sheets REST
// surface. Two implementations exist: Google (the real document) and
// Memory (tests and credential-less development runs).
package sheets

import "context"

// Logical sheet names used by the aggregation core.
const (
	SheetBaza    = "Baza"    // vehicle ledger
	SheetPolasci = "Polasci" // departure register, current service day
	SheetJuce    = "Juce"    // archived register, previous service day
	SheetUsers   = "Users"   // owned by the auth collaborator, never written here
)

// BatchSize is the maximum number of rows per bulk write.
const BatchSize = 500

// Props describes a sheet to create when missing.
type Props struct {
	Rows            int
	Cols            int
	FrozenHeaderRow bool
}

// RGB is a cell fill or text color with channels in [0,1].
type RGB struct {
	R, G, B float64
}

// CellFormat is the subset of cell styling the register and ledger use.
type CellFormat struct {
	Background *RGB
	Foreground *RGB
	Bold       bool
	Italic     bool
	FontSize   int
}

// FormatRequest applies a CellFormat to a rectangle of cells.
// Rows and columns are zero-based; End indexes are exclusive.
type FormatRequest struct {
	StartRow, EndRow int
	StartCol, EndCol int
	Format           CellFormat
}

// Store is the complete contract against the external spreadsheet.
// All ranges are A1 notation without the sheet prefix ("A2:F", "A:J").
type Store interface {
	// EnsureSheet creates the named sheet if missing.
	EnsureSheet(ctx context.Context, name string, props Props) error
	// ReadRange returns the populated cells of the range; trailing empty
	// rows and cells are absent, matching the remote API.
	ReadRange(ctx context.Context, name, rng string) ([][]string, error)
	// WriteRange replaces cells starting at the top-left of the range.
	WriteRange(ctx context.Context, name, rng string, rows [][]string) error
	// ClearRange blanks every cell in the range.
	ClearRange(ctx context.Context, name, rng string) error
	// AppendRows appends rows after the last populated row of the range.
	AppendRows(ctx context.Context, name, rng string, rows [][]string) error
	// BatchFormat applies cell formats in one request.
	BatchFormat(ctx context.Context, name string, reqs []FormatRequest) error
	// BatchSort sorts the rows from startRow down by the given column.
	BatchSort(ctx context.Context, name string, startRow, startCol, endCol, byColumn int) error
	// CopyFormat copies cell formatting (not values) between sheets,
	// best-effort.
	CopyFormat(ctx context.Context, src, dst string, rows, cols int) error
}
