package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ReadCSV parses a ledger in Name,Date,Time form. Anything that deviates from
// that format is reported as ErrMalformed.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, col := range Header {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformed, i+1, header[i], col)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rec := Record{Name: row[0], Date: row[1], Time: row[2]}
		if rec.Name == "" {
			return nil, fmt.Errorf("%w: line %d has an empty name", ErrMalformed, line)
		}
		if _, err := time.Parse(DateLayout, rec.Date); err != nil {
			return nil, fmt.Errorf("%w: line %d date %q", ErrMalformed, line, rec.Date)
		}
		if _, err := time.Parse(TimeLayout, rec.Time); err != nil {
			return nil, fmt.Errorf("%w: line %d time %q", ErrMalformed, line, rec.Time)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV writes records with the Name,Date,Time header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Name, r.Date, r.Time}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
