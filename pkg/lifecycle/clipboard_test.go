package lifecycle

import (
	"testing"

	"github.com/paneshell/paneshell/pkg/model"
)

func TestClipboardRoundTrip(t *testing.T) {
	clip := &MemoryClipboard{}
	in := []model.ViewConfiguration{
		{ID: "v1", SourceRef: "demo:a", Title: "one", Size: model.Size{Width: 10, Height: 4}},
		{ID: "v2", SourceRef: "demo:b"},
	}
	if err := writeClipboard(clip, in); err != nil {
		t.Fatal(err)
	}
	out, err := readClipboard(clip)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "v1" || out[1].SourceRef != "demo:b" {
		t.Errorf("round trip = %+v", out)
	}
}

func TestClipboardRejectsForeignContent(t *testing.T) {
	clip := &MemoryClipboard{}
	if err := clip.WriteAll("just some text the user copied elsewhere"); err != nil {
		t.Fatal(err)
	}
	if _, err := readClipboard(clip); err == nil {
		t.Error("foreign clipboard content accepted")
	}

	if err := clip.WriteAll(`{"kind":"other/app","views":[]}`); err != nil {
		t.Fatal(err)
	}
	if _, err := readClipboard(clip); err == nil {
		t.Error("foreign payload kind accepted")
	}
}
