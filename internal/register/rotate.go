package register

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bgbus/internal/clock"
	"bgbus/internal/sheets"
)

var sentinelFormat = sheets.CellFormat{
	Italic:   true,
	FontSize: 10,
}

// Rotator archives Polasci into Juce once per service day. The window is
// the first half hour after 01:00 local; an in-process date flag keeps a
// single process from rotating twice even if ticks land in the window
// repeatedly.
type Rotator struct {
	store  sheets.Store
	logger *slog.Logger

	mu       sync.Mutex
	doneDate string
}

// NewRotator creates a Rotator over the given sheet store.
func NewRotator(store sheets.Store, logger *slog.Logger) *Rotator {
	return &Rotator{store: store, logger: logger}
}

// MaybeRotate runs the rotation iff now falls in [01:00, 01:30) local and
// this process has not rotated today. Returns whether it rotated.
func (r *Rotator) MaybeRotate(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(clock.Belgrade())
	if local.Hour() != 1 || local.Minute() >= 30 {
		return false, nil
	}
	date := clock.DateOnly(now)

	r.mu.Lock()
	if r.doneDate == date {
		r.mu.Unlock()
		return false, nil
	}
	r.mu.Unlock()

	if err := r.rotate(ctx, now); err != nil {
		return false, err
	}

	r.mu.Lock()
	r.doneDate = date
	r.mu.Unlock()
	r.logger.Info("register rotated", "date", date)
	return true, nil
}

func (r *Rotator) rotate(ctx context.Context, now time.Time) error {
	if err := r.store.EnsureSheet(ctx, sheets.SheetPolasci, sheets.Props{Rows: 2000, Cols: 10}); err != nil {
		return fmt.Errorf("ensure register sheet: %w", err)
	}
	rows, err := r.store.ReadRange(ctx, sheets.SheetPolasci, "A:J")
	if err != nil {
		return fmt.Errorf("read register: %w", err)
	}

	if err := r.store.EnsureSheet(ctx, sheets.SheetJuce, sheets.Props{Rows: 2000, Cols: 10}); err != nil {
		return fmt.Errorf("ensure archive sheet: %w", err)
	}
	if err := r.store.ClearRange(ctx, sheets.SheetJuce, "A:J"); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	if len(rows) > 0 {
		if err := r.store.WriteRange(ctx, sheets.SheetJuce, "A1", rows); err != nil {
			return fmt.Errorf("archive register: %w", err)
		}
		// Formatting on the archive is cosmetic only.
		if err := r.store.CopyFormat(ctx, sheets.SheetPolasci, sheets.SheetJuce, len(rows), 10); err != nil {
			r.logger.Warn("archive format copy failed", "error", err)
		}
	}

	if err := r.store.ClearRange(ctx, sheets.SheetPolasci, "A1:J"); err != nil {
		return fmt.Errorf("reset register: %w", err)
	}
	sentinel := fmt.Sprintf("%s u %s", sentinelPrefix, clock.Timestamp(now))
	if err := r.store.WriteRange(ctx, sheets.SheetPolasci, "A1:J1", [][]string{{sentinel}}); err != nil {
		return fmt.Errorf("write reset sentinel: %w", err)
	}
	reqs := []sheets.FormatRequest{{
		StartRow: 0, EndRow: 1,
		StartCol: 0, EndCol: 10,
		Format: sentinelFormat,
	}}
	if err := r.store.BatchFormat(ctx, sheets.SheetPolasci, reqs); err != nil {
		r.logger.Warn("sentinel format failed", "error", err)
	}
	return nil
}
