package delivery

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility is available
var ErrClipboardUnsupported = errors.New("clipboard not supported on this system")

// TextSource provides the text to capture
type TextSource interface {
	CurrentText() (string, error)
}

// SystemClipboard reads the operating system clipboard
type SystemClipboard struct{}

func (SystemClipboard) CurrentText() (string, error) {
	if clipboard.Unsupported {
		return "", ErrClipboardUnsupported
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("reading clipboard: %w", err)
	}
	return text, nil
}

// ReaderSource reads all remaining text from a reader, such as stdin
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource creates a ReaderSource
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) CurrentText() (string, error) {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
