package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const callTimeout = 20 * time.Second

// retryDelays is the transient-error backoff schedule.
var retryDelays = []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}

// Google implements Store against a Google Sheets document, authenticated
// with a service account. Mutating calls are paced at one per 200 ms to
// stay under the per-minute write quota.
type Google struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	limiter       *rate.Limiter
	logger        *slog.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewGoogle builds a Sheets client from service-account credentials.
func NewGoogle(ctx context.Context, clientEmail, privateKeyPEM, spreadsheetID string, logger *slog.Logger) (*Google, error) {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKeyPEM),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Google{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:        logger,
		sheetIDs:      make(map[string]int64),
	}, nil
}

func (g *Google) EnsureSheet(ctx context.Context, name string, props Props) error {
	if _, err := g.sheetID(ctx, name); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	grid := &sheetsapi.GridProperties{
		RowCount:    int64(props.Rows),
		ColumnCount: int64(props.Cols),
	}
	if props.FrozenHeaderRow {
		grid.FrozenRowCount = 1
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title:          name,
					GridProperties: grid,
				},
			},
		}},
	}
	err := g.call(ctx, "ensure sheet "+name, true, func(ctx context.Context) error {
		resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			g.mu.Lock()
			g.sheetIDs[name] = resp.Replies[0].AddSheet.Properties.SheetId
			g.mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.logger.Info("sheet created", "name", name)
	return nil
}

func (g *Google) ReadRange(ctx context.Context, name, rng string) ([][]string, error) {
	var rows [][]string
	err := g.call(ctx, "read "+name+"!"+rng, false, func(ctx context.Context) error {
		resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, name+"!"+rng).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = fromInterfaces(resp.Values)
		return nil
	})
	return rows, err
}

func (g *Google) WriteRange(ctx context.Context, name, rng string, rows [][]string) error {
	vr := &sheetsapi.ValueRange{Values: toInterfaces(rows)}
	return g.call(ctx, "write "+name+"!"+rng, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, name+"!"+rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

func (g *Google) ClearRange(ctx context.Context, name, rng string) error {
	return g.call(ctx, "clear "+name+"!"+rng, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, name+"!"+rng, &sheetsapi.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
}

func (g *Google) AppendRows(ctx context.Context, name, rng string, rows [][]string) error {
	vr := &sheetsapi.ValueRange{Values: toInterfaces(rows)}
	return g.call(ctx, "append "+name+"!"+rng, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, name+"!"+rng, vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

func (g *Google) BatchFormat(ctx context.Context, name string, reqs []FormatRequest) error {
	id, err := g.sheetID(ctx, name)
	if err != nil {
		return err
	}
	apiReqs := make([]*sheetsapi.Request, 0, len(reqs))
	for _, r := range reqs {
		apiReqs = append(apiReqs, &sheetsapi.Request{
			RepeatCell: &sheetsapi.RepeatCellRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          id,
					StartRowIndex:    int64(r.StartRow),
					EndRowIndex:      int64(r.EndRow),
					StartColumnIndex: int64(r.StartCol),
					EndColumnIndex:   int64(r.EndCol),
				},
				Cell: &sheetsapi.CellData{
					UserEnteredFormat: toCellFormat(r.Format),
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		})
	}
	body := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: apiReqs}
	return g.call(ctx, "format "+name, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, body).Context(ctx).Do()
		return err
	})
}

func (g *Google) BatchSort(ctx context.Context, name string, startRow, startCol, endCol, byColumn int) error {
	id, err := g.sheetID(ctx, name)
	if err != nil {
		return err
	}
	body := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			SortRange: &sheetsapi.SortRangeRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          id,
					StartRowIndex:    int64(startRow),
					StartColumnIndex: int64(startCol),
					EndColumnIndex:   int64(endCol),
				},
				SortSpecs: []*sheetsapi.SortSpec{{
					DimensionIndex: int64(byColumn),
					SortOrder:      "ASCENDING",
				}},
			},
		}},
	}
	return g.call(ctx, "sort "+name, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, body).Context(ctx).Do()
		return err
	})
}

func (g *Google) CopyFormat(ctx context.Context, src, dst string, rows, cols int) error {
	srcID, err := g.sheetID(ctx, src)
	if err != nil {
		return err
	}
	dstID, err := g.sheetID(ctx, dst)
	if err != nil {
		return err
	}
	body := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			CopyPaste: &sheetsapi.CopyPasteRequest{
				Source: &sheetsapi.GridRange{
					SheetId:        srcID,
					EndRowIndex:    int64(rows),
					EndColumnIndex: int64(cols),
				},
				Destination: &sheetsapi.GridRange{
					SheetId:        dstID,
					EndRowIndex:    int64(rows),
					EndColumnIndex: int64(cols),
				},
				PasteType: "PASTE_FORMAT",
			},
		}},
	}
	return g.call(ctx, "copy format "+src+" -> "+dst, true, func(ctx context.Context) error {
		_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, body).Context(ctx).Do()
		return err
	})
}

// sheetID resolves and caches the internal numeric id of a sheet.
func (g *Google) sheetID(ctx context.Context, name string) (int64, error) {
	g.mu.Lock()
	if id, ok := g.sheetIDs[name]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	var found *int64
	err := g.call(ctx, "lookup sheet "+name, false, func(ctx context.Context) error {
		doc, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		if err != nil {
			return err
		}
		g.mu.Lock()
		for _, s := range doc.Sheets {
			if s.Properties != nil {
				g.sheetIDs[s.Properties.Title] = s.Properties.SheetId
				if s.Properties.Title == name {
					id := s.Properties.SheetId
					found = &id
				}
			}
		}
		g.mu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if found == nil {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return *found, nil
}

// call runs one API operation with the per-call timeout, write pacing and
// the transient-error retry schedule.
func (g *Google) call(ctx context.Context, op string, mutating bool, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if mutating {
			if werr := g.limiter.Wait(ctx); werr != nil {
				return werr
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !transient(err) || attempt >= len(retryDelays) {
			break
		}
		g.logger.Warn("sheets call retrying", "op", op, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(retryDelays[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return fmt.Errorf("%s: %w: %v", op, ErrAccessDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// transient reports whether an error is worth retrying: rate limits,
// server-side failures and plain network errors.
func transient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	var uerr *url.Error
	return errors.As(err, &uerr)
}

func toInterfaces(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}

func fromInterfaces(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c)
		}
		out[i] = cells
	}
	return out
}

func toCellFormat(f CellFormat) *sheetsapi.CellFormat {
	tf := &sheetsapi.TextFormat{
		Bold:   f.Bold,
		Italic: f.Italic,
	}
	if f.FontSize > 0 {
		tf.FontSize = int64(f.FontSize)
	}
	if f.Foreground != nil {
		tf.ForegroundColor = &sheetsapi.Color{
			Red:   f.Foreground.R,
			Green: f.Foreground.G,
			Blue:  f.Foreground.B,
		}
	}
	out := &sheetsapi.CellFormat{TextFormat: tf}
	if f.Background != nil {
		out.BackgroundColor = &sheetsapi.Color{
			Red:   f.Background.R,
			Green: f.Background.G,
			Blue:  f.Background.B,
		}
	}
	return out
}
