package sheets

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryReadTrimsTrailingEmpties(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureSheet(ctx, "S", Props{Rows: 10, Cols: 6}); err != nil {
		t.Fatal(err)
	}
	rows := [][]string{
		{"a", "b", ""},
		{"", "", ""},
		{"c"},
		{"", "", ""},
	}
	if err := m.WriteRange(ctx, "S", "A1", rows); err != nil {
		t.Fatal(err)
	}

	got, err := m.ReadRange(ctx, "S", "A1:F")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a", "b"}, {}, {"c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRange = %v, want %v", got, want)
	}
}

func TestMemoryWriteAnchoredAtRangeStart(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureSheet(ctx, "S", Props{Rows: 10, Cols: 6}); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteRange(ctx, "S", "B3", [][]string{{"x", "y"}}); err != nil {
		t.Fatal(err)
	}
	got, err := m.ReadRange(ctx, "S", "A3:C3")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"", "x", "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("row 3 = %v, want %v", got, want)
	}
}

func TestMemoryAppendRows(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureSheet(ctx, "S", Props{}); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteRange(ctx, "S", "A1", [][]string{{"h"}}); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendRows(ctx, "S", "A:B", [][]string{{"a", "b"}, {"c", "d"}}); err != nil {
		t.Fatal(err)
	}
	got, err := m.ReadRange(ctx, "S", "A1:B")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"h"}, {"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after append = %v, want %v", got, want)
	}
}

func TestMemorySheetNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.ReadRange(context.Background(), "Nope", "A1:B2")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryClearRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureSheet(ctx, "S", Props{}); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteRange(ctx, "S", "A1", [][]string{{"h1", "h2"}, {"a", "b"}, {"c", "d"}}); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearRange(ctx, "S", "A2:B"); err != nil {
		t.Fatal(err)
	}
	got, err := m.ReadRange(ctx, "S", "A1:B")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"h1", "h2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after clear = %v, want %v", got, want)
	}
}

func TestMemoryBatchSortBelowHeader(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureSheet(ctx, "S", Props{}); err != nil {
		t.Fatal(err)
	}
	rows := [][]string{
		{"Vozilo", "Linija"},
		{"P93001", "26"},
		{"P80012", "89"},
		{"P85050", "41"},
	}
	if err := m.WriteRange(ctx, "S", "A1", rows); err != nil {
		t.Fatal(err)
	}
	if err := m.BatchSort(ctx, "S", 1, 0, 2, 0); err != nil {
		t.Fatal(err)
	}
	got, err := m.ReadRange(ctx, "S", "A1:B")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Vozilo", "Linija"},
		{"P80012", "89"},
		{"P85050", "41"},
		{"P93001", "26"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after sort = %v, want %v", got, want)
	}
}

func TestMemoryCopyFormat(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, name := range []string{"A", "B"} {
		if err := m.EnsureSheet(ctx, name, Props{}); err != nil {
			t.Fatal(err)
		}
	}
	reqs := []FormatRequest{{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 6, Format: CellFormat{Bold: true}}}
	if err := m.BatchFormat(ctx, "A", reqs); err != nil {
		t.Fatal(err)
	}
	if err := m.CopyFormat(ctx, "A", "B", 100, 6); err != nil {
		t.Fatal(err)
	}
	if got := m.Formats("B"); !reflect.DeepEqual(got, reqs) {
		t.Errorf("copied formats = %v, want %v", got, reqs)
	}
}
