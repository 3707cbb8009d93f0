package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var errNoHeaders = errors.New("dataset has no headers")

// WriteCSV streams the dataset to w, header row first. Title and Subtitle are not part of CSV output.
func WriteCSV(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return errNoHeaders
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Headers); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	line := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for col, name := range data.Headers {
			line[col] = row[name]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("csv row %d: %w", n+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderCSV(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
