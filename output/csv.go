package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// utf8BOM makes Excel and WP All Import detect the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV writes the template header followed by the given rows.
func EncodeCSV(w io.Writer, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes an import-ready CSV file at path.
func WriteCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := EncodeCSV(f, rows); err != nil {
		return err
	}
	return f.Close()
}
