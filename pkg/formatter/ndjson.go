// Package formatter writes message envelopes to an output stream.
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	messages "github.com/cucumber/messages/go/v21"
)

// NDJSONWriter writes one JSON encoded envelope per line. It is safe for
// concurrent use.
type NDJSONWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewNDJSONWriter creates a writer on top of w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	return &NDJSONWriter{encoder: encoder}
}

// Handle writes the envelope followed by a newline.
func (w *NDJSONWriter) Handle(envelope *messages.Envelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(envelope); err != nil {
		return fmt.Errorf("could not write envelope: %w", err)
	}

	return nil
}
