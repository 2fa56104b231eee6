// Package ingest reads uploaded delimited files into records.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"github.com/spacesedan/sentireport/internal/analysis"
	"github.com/spacesedan/sentireport/internal/models"
)

const (
	TEXT_COLUMN = "text"

	// SNIFF_BYTES is how much of the upload is inspected to detect its type.
	SNIFF_BYTES = 3072
)

var acceptedTypes = []string{"text/csv", "text/plain", "text/tab-separated-values"}

type Options struct {
	Column string
	// MaxBytes bounds how much of the input is read. Zero means no bound.
	MaxBytes int64
}

// Dataset is the parsed content of one upload.
type Dataset struct {
	Header   []string
	Records  []models.Record
	Rows     int
	Rejected int
}

var ErrTooLarge = errors.New("upload exceeds the size limit")

// Parse reads a header row and one record per following row. Rows whose text
// cell is empty are counted in Rejected and skipped.
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	column := opts.Column
	if column == "" {
		column = TEXT_COLUMN
	}

	if opts.MaxBytes > 0 {
		r = &limitedReader{r: r, remaining: opts.MaxBytes}
	}

	br := bufio.NewReaderSize(r, SNIFF_BYTES)
	head, err := br.Peek(SNIFF_BYTES)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, wrapReadErr(err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, &analysis.SchemaError{Column: column, Reason: "the file is empty"}
	}

	detected := mimetype.Detect(head)
	if !lo.SomeBy(acceptedTypes, func(t string) bool { return detected.Is(t) }) {
		return nil, &analysis.SchemaError{Column: column, Reason: fmt.Sprintf("expected delimited text, got %s", detected.String())}
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if detected.Is("text/tab-separated-values") {
		reader.Comma = '\t'
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, &analysis.SchemaError{Column: column, Reason: "the header row could not be read"}
	}
	header = lo.Map(header, func(h string, i int) string {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		return strings.TrimSpace(h)
	})

	textIdx := lo.IndexOf(header, column)
	if textIdx < 0 {
		return nil, &analysis.SchemaError{Column: column, Found: header}
	}

	ds := &Dataset{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				return nil, err
			}
			return nil, &analysis.SchemaError{Column: column, Reason: fmt.Sprintf("row %d could not be read", ds.Rows+2)}
		}
		ds.Rows++

		if textIdx >= len(row) || strings.TrimSpace(row[textIdx]) == "" {
			ds.Rejected++
			continue
		}

		ds.Records = append(ds.Records, models.Record{
			Row:    ds.Rows,
			Text:   row[textIdx],
			Fields: extraFields(header, row, textIdx),
		})
	}

	return ds, nil
}

func extraFields(header, row []string, textIdx int) map[string]string {
	if len(header) <= 1 {
		return nil
	}
	fields := make(map[string]string, len(header)-1)
	for i, name := range header {
		if i == textIdx || name == "" {
			continue
		}
		if i < len(row) {
			fields[name] = row[i]
		} else {
			fields[name] = ""
		}
	}
	return fields
}

func wrapReadErr(err error) error {
	if errors.Is(err, ErrTooLarge) {
		return err
	}
	return fmt.Errorf("[Ingest] failed to read upload: %w", err)
}

// limitedReader fails with ErrTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
