package fiber

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Event is one structured trace record emitted by a protocol operation.
// Entry is -1 for operations that have no resume point.
type Event struct {
	Op     string
	Caller string
	Entry  int
	SP     int
}

// Recorder receives trace events on behalf of an owner.
type Recorder interface {
	RecordingLevel(level int) bool
	Record(level int, ev Event)
}

// LogRecorder forwards trace events to slog handlers, fanned out with
// slog-multi. The recording level gates emission: level 0 records nothing,
// higher levels are increasingly verbose. Protocol operations record at
// level 2.
type LogRecorder struct {
	level  atomic.Int32
	logger *slog.Logger
}

// NewLogRecorder builds a LogRecorder at the given recording level. With no
// handlers it logs to stderr as text.
func NewLogRecorder(level int, handlers ...slog.Handler) *LogRecorder {
	if len(handlers) == 0 {
		handlers = []slog.Handler{
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		}
	}
	r := &LogRecorder{logger: slog.New(slogmulti.Fanout(handlers...))}
	r.level.Store(int32(level))
	return r
}

// NewJournalRecorder builds a LogRecorder that writes to the systemd journal
// in addition to stderr. It fails when no journal socket is available.
func NewJournalRecorder(level int) (*LogRecorder, error) {
	journal, err := slogjournal.NewHandler(&slogjournal.Options{
		ReplaceGroup: toJournalKey,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
	if err != nil {
		return nil, err
	}
	text := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewLogRecorder(level, text, journal), nil
}

func (r *LogRecorder) RecordingLevel(level int) bool {
	return int(r.level.Load()) >= level
}

// SetRecordingLevel changes the recording level. Safe to call while stacks
// are running; the gate is a single atomic load.
func (r *LogRecorder) SetRecordingLevel(level int) {
	r.level.Store(int32(level))
}

func (r *LogRecorder) Record(level int, ev Event) {
	if !r.RecordingLevel(level) {
		return
	}
	r.logger.LogAttrs(context.Background(), slogLevel(level), ev.Op,
		slog.String("caller", ev.Caller),
		slog.Int("entry", ev.Entry),
		slog.Int("sp", ev.SP),
	)
}

func slogLevel(level int) slog.Level {
	switch {
	case level <= 1:
		return slog.LevelInfo
	case level == 2:
		return slog.LevelDebug
	default:
		return slog.LevelDebug - 4
	}
}

func toJournalKey(key string) string {
	key = strings.ToUpper(key)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, key)
}
