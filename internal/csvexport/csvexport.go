package csvexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Column maps a record to one cell
type Column[T any] struct {
	Label string
	Value func(T) string
}

// Write emits a header row of labels then one row per record, in column
// order. Cells are quoted only where encoding/csv requires it: a comma, quote,
// CR or LF anywhere, a leading space or tab, or the lone field `\.`.
func Write[T any](w io.Writer, columns []Column[T], records []T) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			row[i] = c.Value(rec)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func Bytes[T any](columns []Column[T], records []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, columns, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile writes the export into dir under a timestamped name and returns the path
func SaveFile[T any](dir, prefix string, columns []Column[T], records []T, now time.Time) (string, error) {
	b, err := Bytes(columns, records)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(prefix, now))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// Filename is prefix_YYYY-MM-DD.csv
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

// Cell helpers for common field types

func Float(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func Int(i int) string {
	return strconv.Itoa(i)
}

func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
