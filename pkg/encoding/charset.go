// Package encoding converts legacy map text to UTF-8 and normalizes the
// slash-separated paths used inside texture archives.
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ErrUnknownCharset is returned for charset names Lookup does not know.
var ErrUnknownCharset = errors.New("unknown charset")

// charsets maps lowercase names to decoders. A nil entry is UTF-8.
var charsets = map[string]encoding.Encoding{
	"":             nil,
	"utf-8":        nil,
	"utf8":         nil,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"euc-kr":       korean.EUCKR,
}

// Lookup returns the encoding for a charset name. UTF-8 yields nil.
func Lookup(charset string) (encoding.Encoding, error) {
	enc, ok := charsets[strings.ToLower(strings.TrimSpace(charset))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	return enc, nil
}

// NewReader wraps r so it yields UTF-8.
func NewReader(r io.Reader, charset string) (io.Reader, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// ToUTF8 converts data in charset to UTF-8.
func ToUTF8(data []byte, charset string) ([]byte, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return data, nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", charset, err)
	}
	return out, nil
}

// FromUTF8 converts UTF-8 text to charset.
func FromUTF8(s string, charset string) ([]byte, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(s), nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", charset, err)
	}
	return out, nil
}

// NormalizePath turns backslashes into slashes, cleans the path and drops
// any leading slash, so editor-style names become valid io/fs paths.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// FoldPath is NormalizePath plus lowercasing, for case-insensitive lookups.
func FoldPath(p string) string {
	return strings.ToLower(NormalizePath(p))
}

// TrimNull returns the bytes before the first NUL.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}
