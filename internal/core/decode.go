package core

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeUpload reads an uploaded contact file into a string.
//
// A UTF-8 BOM is dropped, UTF-16 files with a BOM are converted, and invalid
// UTF-8 is replaced with U+FFFD. More than maxBytes of input returns
// ErrFileTooLarge; maxBytes <= 0 disables the limit.
func DecodeUpload(r io.Reader, maxBytes int64) (string, error) {
	var limited *io.LimitedReader
	if maxBytes > 0 {
		limited = &io.LimitedReader{R: r, N: maxBytes + 1}
		r = limited
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if limited != nil && limited.N <= 0 {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}

	return string(data), nil
}
