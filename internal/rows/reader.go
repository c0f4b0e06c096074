// Package rows streams site records out of a CSV site list.
//
// The reader is pull-based: each call to Next parses one more line, so a
// site list of any length is never held in memory at once. The header row is
// matched case-insensitively, a UTF-8 byte order mark written by spreadsheet
// exports is dropped, and unknown columns are ignored.
package rows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Column names understood in the header row.
const (
	ColDomain  = "domain"
	ColPhone   = "phone"
	ColAddress = "address"
	ColEmail   = "email"
	ColTitle   = "title"
)

var (
	// ErrNoDomainColumn is returned when the header lacks a domain column.
	ErrNoDomainColumn = errors.New("site list has no domain column")
	// ErrEmptyDomain is returned for a row whose domain cell is blank.
	ErrEmptyDomain = errors.New("row has an empty domain")
	// ErrInvalidDomain is returned for a domain that cannot be used as a directory name.
	ErrInvalidDomain = errors.New("domain is not a valid directory name")
	// ErrReservedDomain is returned for a domain starting with a dot. Such
	// names are kept for sitegen's own state under the build root (.sitegen).
	ErrReservedDomain = errors.New("domain is reserved")
)

// Reader yields one site.Record per data row.
type Reader struct {
	csv  *csv.Reader
	cols map[string]int
}

// NewReader reads the header row from r and prepares to stream records.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	fold := cases.Fold()
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := fold.String(strings.TrimSpace(name))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	if _, ok := cols[ColDomain]; !ok {
		return nil, ErrNoDomainColumn
	}

	return &Reader{csv: cr, cols: cols}, nil
}

// Next returns the next record, or io.EOF once the input is exhausted.
func (r *Reader) Next() (site.Record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return site.Record{}, io.EOF
		}
		return site.Record{}, err
	}
	line, _ := r.csv.FieldPos(0)

	rec := site.Record{
		Domain:  strings.TrimSpace(r.field(fields, ColDomain)),
		Phone:   r.field(fields, ColPhone),
		Address: r.field(fields, ColAddress),
		Email:   r.field(fields, ColEmail),
		Title:   r.field(fields, ColTitle),
		Line:    line,
	}
	if err := validateDomain(rec.Domain); err != nil {
		return site.Record{}, fmt.Errorf("line %d: %w", line, err)
	}
	return rec, nil
}

// All adapts Next to a range-over-func sequence. Iteration stops after the
// first error is yielded.
func (r *Reader) All() iter.Seq2[site.Record, error] {
	return func(yield func(site.Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (r *Reader) field(fields []string, col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func validateDomain(domain string) error {
	if domain == "" {
		return ErrEmptyDomain
	}
	if domain == "." || domain == ".." || strings.ContainsAny(domain, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	if strings.HasPrefix(domain, ".") {
		return fmt.Errorf("%w: %q", ErrReservedDomain, domain)
	}
	return nil
}

// File is a Reader bound to an open file.
type File struct {
	*Reader
	f *os.File
}

// Open opens path and reads its header.
func Open(path string) (*File, error) {
	// #nosec G304 -- the site list path is supplied by the operator.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &File{Reader: r, f: f}, nil
}

// Close releases the underlying file.
func (f *File) Close() error { return f.f.Close() }
