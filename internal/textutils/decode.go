// Package textutils provides decoding and normalization of statement text.
package textutils

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder turns raw statement bytes into UTF-8 text. Input that is already
// valid UTF-8 is used as is; anything else goes through the fallback
// encoding, which for Hungarian bank exports is usually Windows-1250.
type Decoder struct {
	fallback encoding.Encoding
	name     string
}

// NewDecoder builds a Decoder whose fallback is resolved from a WHATWG
// encoding label such as "windows-1250" or "iso-8859-2".
func NewDecoder(label string) (*Decoder, error) {
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unknown encoding label %q", label)
	}
	return &Decoder{fallback: enc, name: name}, nil
}

// DefaultDecoder falls back to Windows-1250.
func DefaultDecoder() *Decoder {
	return &Decoder{fallback: charmap.Windows1250, name: "windows-1250"}
}

// FallbackName returns the canonical name of the fallback encoding.
func (d *Decoder) FallbackName() string {
	return d.name
}

// Decode strips a UTF-8 byte order mark and returns the content as text.
// Bytes that cannot be decoded are dropped.
func (d *Decoder) Decode(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	if d != nil && d.fallback != nil {
		if out, err := d.fallback.NewDecoder().Bytes(raw); err == nil {
			return string(out)
		}
	}
	return strings.ToValidUTF8(string(raw), "")
}

// Head returns at most n runes from the start of s.
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
