// Package auditlog implements the append-only, semicolon-delimited audit
// trail each role instance writes as a side effect of every exchange.
//
// The file is truncated once when the writer is opened and only ever
// appended to afterwards. One writer is shared by all concurrent
// activities of an instance; appends are serialized so lines never
// interleave mid-line.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Markers written in place of a response that never happened.
const (
	DroppedMarker = "(dropped)"
	TimeoutMarker = "(timeout)"
)

// Writer is an append-only audit log bound to one role instance.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// Cfg configures a Writer.
type Cfg func(*Writer) error

// WithClock sets the clock used to stamp entries. Defaults to time.Now.
func WithClock(now func() time.Time) Cfg {
	return func(w *Writer) error {
		w.now = now
		return nil
	}
}

// NewWriter opens the audit log at path, creating the parent directory if
// absent and truncating any previous contents.
func NewWriter(path string, cfgs ...Cfg) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create log directory failed")
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file failed")
	}
	w := &Writer{
		file: file,
		now:  time.Now,
	}
	for _, cfg := range cfgs {
		if err := cfg(w); err != nil {
			return nil, errors.Wrap(err, "apply Writer cfg failed")
		}
	}
	return w, nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Wrap(w.file.Close(), "close log file failed")
}

// Now returns the current instant formatted for an audit entry.
func (w *Writer) Now() string {
	return FormatTime(w.now())
}

// FormatTime renders an instant as HH:MM:SS.mmm.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%s.%03d", t.Format("15:04:05"), t.Nanosecond()/int(time.Millisecond))
}

// FormatDate renders an instant as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Exchange records a completed request/response pair.
func (w *Writer) Exchange(requestTime, requestText, responseTime, responseText string) error {
	return w.append(requestTime, requestText, responseTime, responseText)
}

// Dropped records a request the server deliberately ignored.
func (w *Writer) Dropped(requestTime, requestText string) error {
	return w.append(requestTime, requestText, DroppedMarker, DroppedMarker)
}

// Timeout records a request whose reply wait expired.
func (w *Writer) Timeout(sendTime, requestText, expiryTime string) error {
	return w.append(sendTime, requestText, expiryTime, TimeoutMarker)
}

// Keepalive records an unsolicited push; the request columns stay empty.
func (w *Writer) Keepalive(receiveTime, text string) error {
	return w.append("", "", receiveTime, text)
}

func (w *Writer) append(fields ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	line := FormatDate(w.now())
	for _, field := range fields {
		line += ";" + field
	}
	if _, err := fmt.Fprintln(w.file, line); err != nil {
		return errors.Wrap(err, "append log entry failed")
	}
	return nil
}
