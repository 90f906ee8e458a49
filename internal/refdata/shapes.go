package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

type seqPoint struct {
	Point
	seq int
}

// loadShapes parses one shapes file into the accumulator: CSV rows of
// shapeId,lat,lon,sequence with an optional header. Rows from multiple
// files accumulate under the same shape keys.
func loadShapes(path string, acc map[string][]seqPoint) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if len(record) < 4 {
			continue
		}
		id := strings.TrimPrefix(record[0], "\xef\xbb\xbf")
		seq, err := strconv.Atoi(record[3])
		if err != nil {
			// Header row or junk line.
			continue
		}
		lat, latErr := strconv.ParseFloat(record[1], 64)
		lon, lonErr := strconv.ParseFloat(record[2], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		acc[id] = append(acc[id], seqPoint{Point: Point{Lat: lat, Lon: lon}, seq: seq})
	}
	return nil
}

// finalizeShapes orders every accumulated polyline by sequence.
func finalizeShapes(acc map[string][]seqPoint) map[string][]Point {
	shapes := make(map[string][]Point, len(acc))
	for id, pts := range acc {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].seq < pts[j].seq })
		line := make([]Point, len(pts))
		for i, p := range pts {
			line[i] = p.Point
		}
		shapes[id] = line
	}
	return shapes
}
