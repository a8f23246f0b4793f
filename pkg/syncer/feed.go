package syncer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// maxLineSize bounds a single spool line (events can carry large payloads).
const maxLineSize = 1024 * 1024

// Feed tails a JSONL spool file and delivers each appended event to the
// subscriber. The spool is the delivery channel for the real-time update
// contract: an external process appends one JSON event per line.
type Feed struct {
	path    string
	sub     *Subscriber
	watcher *fsnotify.Watcher
	offset  int64
	done    chan struct{}
}

// NewFeed creates a feed for the spool at path.
func NewFeed(path string, sub *Subscriber) *Feed {
	return &Feed{path: path, sub: sub}
}

// Start begins tailing. Existing spool content is consumed first so a
// restart catches up, then fsnotify write events drive incremental reads.
// Returns once the watcher is installed; delivery runs until ctx is done
// or Close is called.
func (f *Feed) Start(ctx context.Context) error {
	if f.path == "" {
		return fmt.Errorf("sync feed: no spool path configured")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("sync feed: create spool dir: %w", err)
	}
	// Touch the spool so the watch target exists.
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sync feed: open spool: %w", err)
	}
	file.Close()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("sync feed: watcher: %w", err)
	}
	if err := w.Add(f.path); err != nil {
		w.Close()
		return fmt.Errorf("sync feed: watch %s: %w", f.path, err)
	}
	f.watcher = w
	f.done = make(chan struct{})

	if err := f.consume(); err != nil {
		w.Close()
		return err
	}

	go f.loop(ctx)
	return nil
}

// Close stops the feed.
func (f *Feed) Close() {
	if f.watcher != nil {
		f.watcher.Close()
	}
	if f.done != nil {
		<-f.done
	}
}

func (f *Feed) loop(ctx context.Context) {
	defer close(f.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Best effort: a truncated or briefly unreadable spool is
			// retried on the next write event.
			_ = f.consume()
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// consume reads events appended since the last offset. Malformed lines are
// skipped so one bad event never stalls the feed. Only newline-terminated
// lines advance the offset: an event whose bytes arrive across multiple
// writes stays pending as an unterminated tail until its newline lands.
func (f *Feed) consume() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("sync feed: open spool: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("sync feed: stat spool: %w", err)
	}
	if info.Size() < f.offset {
		// Spool was truncated or rotated; start over.
		f.offset = 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("sync feed: seek spool: %w", err)
	}

	reader := bufio.NewReader(file)
	consumed := f.offset
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			// Unterminated tail: leave it for the next read.
			break
		}
		if err != nil {
			f.offset = consumed
			return fmt.Errorf("sync feed: read spool: %w", err)
		}
		consumed += int64(len(line))
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if len(line) > maxLineSize {
			f.sub.drop(fmt.Errorf("spool line exceeds %d bytes", maxLineSize), Event{})
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			f.sub.drop(fmt.Errorf("decode spool line: %w", err), Event{})
			continue
		}
		f.sub.Apply(ev)
	}
	f.offset = consumed
	return nil
}
