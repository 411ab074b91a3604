// Package codec provides the gzip codec used for compressed stub response bodies.
//
// Both directions are pure functions over byte slices. Failures come back as
// *EncodeError or *DecodeError rather than raw I/O errors.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Errors matched by the typed errors below via errors.Is.
var (
	ErrEncode = errors.New("codec: gzip encode failed")
	ErrDecode = errors.New("codec: gzip decode failed")
)

// EncodeError reports a failure while compressing.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("codec: gzip encode: %v", e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEncode) hold.
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// DecodeError reports input that is not a valid gzip stream.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("codec: gzip decode: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// gzip member header: ID1 ID2 CM(deflate)
var magic = []byte{0x1f, 0x8b, 0x08}

// IsCompressed reports whether b starts with a gzip header.
func IsCompressed(b []byte) bool {
	return bytes.HasPrefix(b, magic)
}

// Compress gzips b.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return nil, &EncodeError{Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return buf.Bytes(), nil
}

// CompressString gzips the UTF-8 bytes of s.
func CompressString(s string) ([]byte, error) {
	return Compress([]byte(s))
}

// Decompress gunzips b. Anything that is not a complete gzip stream,
// including plain uncompressed bytes, fails with *DecodeError.
func Decompress(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return out, nil
}

// DecompressString gunzips b and returns the result as a string.
func DecompressString(b []byte) (string, error) {
	out, err := Decompress(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
