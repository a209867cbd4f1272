package roster

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kwurst/create-gitlab-users/internal/domain"
)

func readAll(t *testing.T, r *Reader) ([]domain.Row, []int) {
	t.Helper()
	var rows []domain.Row
	var lines []int
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, lines
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		rows = append(rows, row)
		lines = append(lines, r.Line())
	}
}

func TestReaderDropsHeader(t *testing.T) {
	// a header that looks like a data row must still be discarded
	src := "Smith,Jane,jsmith,12345\nDoe,John,jdoe,67890\n"
	r, err := NewReader(strings.NewReader(src), unicode.UTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	rows, lines := readAll(t, r)
	want := []domain.Row{{"Doe", "John", "jdoe", "67890"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
	if !reflect.DeepEqual(lines, []int{2}) {
		t.Fatalf("lines = %v, want [2]", lines)
	}
}

func TestReaderStripsBOMAndHandlesQuoting(t *testing.T) {
	src := "\ufeff\"Last Name\",\"First Name\",\"Username\",\"Student ID\",\"Last Access\"\r\n" +
		"\"Smith\",\"Jane\",\"jsmith\",\"12345\",\"2013-09-01\"\r\n" +
		"\"Doe, Jr.\",\"John\",\"jdoe\",\"67890\"\r\n" +
		"\"Two\nLines\",\"Ann\",\"alines\",\"1\"\r\n" +
		"\r\n" +
		"Short,Row\r\n"
	r, err := NewReader(strings.NewReader(src), unicode.UTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	rows, lines := readAll(t, r)
	want := []domain.Row{
		{"Smith", "Jane", "jsmith", "12345", "2013-09-01"},
		{"Doe, Jr.", "John", "jdoe", "67890"},
		{"Two\nLines", "Ann", "alines", "1"},
		{"Short", "Row"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
	if !reflect.DeepEqual(lines, []int{2, 3, 4, 7}) {
		t.Fatalf("lines = %v, want [2 3 4 7]", lines)
	}
}

func TestReaderHeaderOnly(t *testing.T) {
	for _, src := range []string{"", "Last,First,User,ID", "Last,First,User,ID\n"} {
		r, err := NewReader(strings.NewReader(src), unicode.UTF8)
		if err != nil {
			t.Fatalf("NewReader(%q): %v", src, err)
		}
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next(%q) error = %v, want io.EOF", src, err)
		}
	}
}

func TestReaderMalformedQuoting(t *testing.T) {
	src := "header\nSmith,Jane,jsmith,1\nDoe,Jo\"hn,jdoe,2\nLast,Row,never,3\n"
	r, err := NewReader(strings.NewReader(src), unicode.UTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	_, err = r.Next()
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("second Next error = %v, want ErrFormat", err)
	}
	var rowErr *domain.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Fatalf("second Next error = %#v, want RowError on line 3", err)
	}
}

func TestReaderInvalidUTF8(t *testing.T) {
	src := "Last,First,User,ID\nSmith,Jane,jsmith,1\nM\xfcller,J\xf6rg,jm\xfcller,42\n"
	r, err := NewReader(strings.NewReader(src), unicode.UTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	row, err := r.Next()
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("Next = %q, %v; want ErrFormat", row, err)
	}
	var rowErr *domain.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Fatalf("Next error = %#v, want RowError on line 3", err)
	}
}

func TestReaderUTF16WithBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(
		"Last,First,User,ID\nMüller,Jörg,jmuller,42\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// the BOM overrides the configured encoding
	r, err := NewReader(strings.NewReader(encoded), unicode.UTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rows, _ := readAll(t, r)
	want := []domain.Row{{"Müller", "Jörg", "jmuller", "42"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
}

func TestReaderLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("Last,First,User,ID\nNuñez,José,jnunez,7\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	enc, err := LookupEncoding("latin-1")
	if err != nil {
		t.Fatalf("LookupEncoding: %v", err)
	}
	r, err := NewReader(strings.NewReader(encoded), enc)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rows, _ := readAll(t, r)
	want := []domain.Row{{"Nuñez", "José", "jnunez", "7"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
}

func TestLookupEncodingUnknown(t *testing.T) {
	if _, err := LookupEncoding("ebcdic"); err == nil {
		t.Fatal("LookupEncoding(ebcdic) succeeded, want error")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(path, []byte("\ufeffLast,First,User,ID\nSmith,Jane,jsmith,12345\n"), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	r, err := Open(path, "utf-8")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows, _ := readAll(t, r)
	if len(rows) != 1 || rows[0][2] != "jsmith" {
		t.Fatalf("rows = %q", rows)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"), "utf-8")
	if !errors.Is(err, domain.ErrIO) {
		t.Fatalf("Open error = %v, want ErrIO", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open error = %v, want os.ErrNotExist in chain", err)
	}
}
