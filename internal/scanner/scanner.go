// Package scanner feeds line-oriented barcode scanner input into the event
// log. Scanners in keyboard-wedge or serial mode emit the code followed by a
// carriage return or newline.
package scanner

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/service"
)

// Recorder is the part of service.Tracker the listener needs.
type Recorder interface {
	RecordEvent(ctx context.Context, in service.RecordInput) (*domain.ScanEvent, error)
}

// Listener records one event per non-empty input line.
type Listener struct {
	recorder   Recorder
	logger     *slog.Logger
	eventType  domain.EventType
	locationID uuid.UUID
}

func NewListener(recorder Recorder, logger *slog.Logger, eventType domain.EventType, locationID uuid.UUID) *Listener {
	return &Listener{
		recorder:   recorder,
		logger:     logger,
		eventType:  eventType,
		locationID: locationID,
	}
}

// Run reads r until EOF or until ctx is done. A line that fails to record is
// logged and skipped. Run returns nil on EOF and on cancellation; a read
// blocked in r is abandoned on cancellation, so callers owning r should
// close it.
func (l *Listener) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		split := &codeSplitter{max: maxCodeLen, logger: l.logger}
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 256), maxCodeLen)
		sc.Split(split.scan)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	l.logger.Info("scanner listening", "event_type", l.eventType, "location_id", l.locationID)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scanner stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						l.logger.Error("scanner read failed", "error", err)
						return err
					}
				default:
				}
				l.logger.Info("scanner input closed")
				return nil
			}
			l.handle(ctx, line)
		}
	}
}

func (l *Listener) handle(ctx context.Context, line string) {
	code := stripSpace(line)
	if code == "" {
		return
	}
	_, err := l.recorder.RecordEvent(ctx, service.RecordInput{
		Type:         l.eventType,
		RawStudentID: code,
		LocationID:   l.locationID,
		Source:       "scanner",
	})
	if err != nil {
		l.logger.Warn("scan rejected", "code", code, "error", err)
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// maxCodeLen bounds a single scanned code. Longer runs are noise from a
// misconfigured device and are dropped up to the next terminator.
const maxCodeLen = 1024

// codeSplitter splits on '\r' or '\n' so CR, LF and CRLF terminated
// scanners all work. A CRLF pair yields one empty token, which handle skips.
type codeSplitter struct {
	max        int
	logger     *slog.Logger
	discarding bool
}

func (s *codeSplitter) scan(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if s.discarding {
		if i < 0 {
			return len(data), nil, nil
		}
		s.discarding = false
		return i + 1, nil, nil
	}
	if i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	if len(data) >= s.max {
		s.discarding = true
		s.logger.Warn("scanner input too long, discarding until next line", "max_bytes", s.max)
		return len(data), nil, nil
	}
	return 0, nil, nil
}
