package logutil

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/PurpleSec/logx"
)

// Level is the severity attached to a diagnostic message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Sink accepts a message at a severity. Components take a Sink instead of
// writing to a global logger so tests can capture what they report.
type Sink interface {
	Log(level Level, msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(level Level, msg string)

func (f SinkFunc) Log(level Level, msg string) { f(level, msg) }

// Logf formats and sends a message to s. A nil sink is ignored.
func Logf(s Sink, level Level, format string, args ...any) {
	if s == nil {
		return
	}
	s.Log(level, fmt.Sprintf(format, args...))
}

type stdSink struct{ min Level }

func (s stdSink) Log(level Level, msg string) {
	if level < s.min {
		return
	}
	log.Printf("[%s] %s", level, msg)
}

// Std forwards every message to the standard logger configured by Setup.
func Std() Sink { return stdSink{min: LevelDebug} }

// StdLevel is Std with messages below min dropped.
func StdLevel(min Level) Sink { return stdSink{min: min} }

type discardSink struct{}

func (discardSink) Log(Level, string) {}

// Discard drops everything.
func Discard() Sink { return discardSink{} }

type logxSink struct{ l logx.Log }

func (s logxSink) Log(level Level, msg string) {
	switch level {
	case LevelDebug:
		s.l.Debug("%s", msg)
	case LevelInfo:
		s.l.Info("%s", msg)
	case LevelWarn:
		s.l.Warning("%s", msg)
	default:
		s.l.Error("%s", msg)
	}
}

// NewLogxSink writes leveled output to w. verbose lowers the threshold from
// Info to Debug.
func NewLogxSink(w io.Writer, verbose bool) Sink {
	lvl := logx.Info
	if verbose {
		lvl = logx.Debug
	}
	l := logx.Writer(w, lvl)
	l.SetPrefix("screen-pin")
	return logxSink{l: l}
}

// Entry is one message captured by a Recorder.
type Entry struct {
	Level Level
	Msg   string
}

// Recorder is a Sink that keeps every message in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Log(level Level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg})
	r.mu.Unlock()
}

// Entries returns a snapshot of the captured messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Contains reports whether any message at level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of messages at level.
func (r *Recorder) Count(level Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
