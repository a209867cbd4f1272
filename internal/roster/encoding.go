package roster

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves a configured encoding name to its decoder.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unsupported roster encoding %q", name)
}

// decode converts r to UTF-8. A leading UTF-8 or UTF-16 byte-order mark wins
// over enc and is stripped. UTF-8 input is passed through untouched so that
// invalid sequences reach the reader instead of becoming U+FFFD.
func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	var fallback transform.Transformer = transform.Nop
	if enc != unicode.UTF8 {
		fallback = enc.NewDecoder()
	}
	return transform.NewReader(r, unicode.BOMOverride(fallback))
}
