package roster

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/kwurst/create-gitlab-users/internal/domain"
)

// headerLines is the number of physical lines dropped before CSV parsing.
const headerLines = 1

// Reader yields roster rows in file order, one at a time. It is single pass.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	line   int
}

// Open opens the roster file at path and discards its header line.
func Open(path, encodingName string) (*Reader, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open roster: %w", domain.ErrIO, err)
	}

	r, err := NewReader(file, enc)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads a roster from src. The first line is thrown away without
// being parsed, whatever it contains.
func NewReader(src io.Reader, enc encoding.Encoding) (*Reader, error) {
	buffered := bufio.NewReader(decode(src, enc))
	if _, err := buffered.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read roster header: %w", domain.ErrIO, err)
	}

	cr := csv.NewReader(buffered)
	// short rows are reported by the mapper, not here
	cr.FieldsPerRecord = -1
	return &Reader{csv: cr}, nil
}

// Next returns the next row, or io.EOF once the file is exhausted.
func (r *Reader) Next() (domain.Row, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.line = parseErr.StartLine + headerLines
			return nil, &domain.RowError{
				Line: r.line,
				Err:  fmt.Errorf("%w: %v", domain.ErrFormat, parseErr.Err),
			}
		}
		return nil, fmt.Errorf("%w: read roster: %w", domain.ErrIO, err)
	}

	line, _ := r.csv.FieldPos(0)
	r.line = line + headerLines
	for i, field := range fields {
		if !utf8.ValidString(field) {
			return nil, &domain.RowError{
				Line: r.line,
				Err:  fmt.Errorf("%w: field %d is not valid utf-8", domain.ErrFormat, i+1),
			}
		}
	}
	return domain.Row(fields), nil
}

// Line reports the file line on which the last returned row started.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
