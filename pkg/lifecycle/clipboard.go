package lifecycle

import (
	"encoding/json"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/paneshell/paneshell/pkg/model"
)

// Clipboard abstracts the system clipboard so copy/paste works (and is
// testable) on hosts without one.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// systemClipboard routes through the OS clipboard.
type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// MemoryClipboard is an in-memory Clipboard for tests and headless hosts.
type MemoryClipboard struct {
	text string
}

// ReadAll returns the stored text.
func (c *MemoryClipboard) ReadAll() (string, error) { return c.text, nil }

// WriteAll stores the text.
func (c *MemoryClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

// clipboardPayload is the JSON envelope written on copy, versioned so a
// paste can reject foreign clipboard content cleanly.
type clipboardPayload struct {
	Kind  string                    `json:"kind"`
	Views []model.ViewConfiguration `json:"views"`
}

const clipboardKind = "paneshell/views"

func writeClipboard(clip Clipboard, views []model.ViewConfiguration) error {
	data, err := json.Marshal(clipboardPayload{Kind: clipboardKind, Views: views})
	if err != nil {
		return fmt.Errorf("encode clipboard payload: %w", err)
	}
	return clip.WriteAll(string(data))
}

func readClipboard(clip Clipboard) ([]model.ViewConfiguration, error) {
	text, err := clip.ReadAll()
	if err != nil {
		return nil, err
	}
	var payload clipboardPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode clipboard payload: %w", err)
	}
	if payload.Kind != clipboardKind {
		return nil, fmt.Errorf("clipboard does not hold view snapshots")
	}
	return payload.Views, nil
}
