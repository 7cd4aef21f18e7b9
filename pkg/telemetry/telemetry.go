// Package telemetry collects the caption/value lines an op-mode reports each
// cycle and hands them to whatever is displaying them.
package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const Separator = " : "

// Sink displays one update's worth of lines.
type Sink interface {
	Show(lines []string)
}

type Telemetry struct {
	lock    sync.Mutex
	pending []string
	sinks   []Sink
}

func New(sinks ...Sink) *Telemetry {
	return &Telemetry{sinks: sinks}
}

func (t *Telemetry) AddSink(s Sink) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.sinks = append(t.sinks, s)
}

func (t *Telemetry) AddData(caption string, value interface{}) {
	t.AddLine(caption + Separator + fmt.Sprint(value))
}

func (t *Telemetry) AddDataf(caption string, format string, args ...interface{}) {
	t.AddLine(caption + Separator + fmt.Sprintf(format, args...))
}

func (t *Telemetry) AddLine(line string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending = append(t.pending, line)
}

// Update sends the pending lines to every sink and starts a new batch.
func (t *Telemetry) Update() {
	t.lock.Lock()
	lines := t.pending
	sinks := append([]Sink(nil), t.sinks...)
	t.pending = nil
	t.lock.Unlock()

	for _, s := range sinks {
		s.Show(lines)
	}
}

// Clear drops the pending lines without sending them.
func (t *Telemetry) Clear() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending = nil
}

// LogSink writes updates to the log, at most once per interval.
type LogSink struct {
	logger   *zap.SugaredLogger
	clock    clock.Clock
	interval time.Duration

	lock     sync.Mutex
	last     time.Time
	lastText string
}

func NewLogSink(logger *zap.SugaredLogger, clk clock.Clock, interval time.Duration) *LogSink {
	return &LogSink{logger: logger, clock: clk, interval: interval}
}

func (s *LogSink) Show(lines []string) {
	text := strings.Join(lines, "\n")
	now := s.clock.Now()
	s.lock.Lock()
	if text == s.lastText || (!s.last.IsZero() && now.Sub(s.last) < s.interval) {
		s.lock.Unlock()
		return
	}
	s.last = now
	s.lastText = text
	s.lock.Unlock()
	s.logger.Infof("Telemetry:\n%s", text)
}

// Recorder keeps every update, for tests.
type Recorder struct {
	lock    sync.Mutex
	updates [][]string
}

func (r *Recorder) Show(lines []string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.updates = append(r.updates, append([]string(nil), lines...))
}

func (r *Recorder) Updates() [][]string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([][]string(nil), r.updates...)
}

// Last returns the most recent update, or nil if there has been none.
func (r *Recorder) Last() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

// Contains reports whether any update included line.
func (r *Recorder) Contains(line string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.updates {
		for _, l := range u {
			if l == line {
				return true
			}
		}
	}
	return false
}
