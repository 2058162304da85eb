package harness

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/nback/internal/audio"
	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/testutil"
)

// Trace entry kinds beyond the engine's event names.
const (
	KindSound = "sound"
	KindPress = "press"
)

// TraceEntry is one line of a block trace.
type TraceEntry struct {
	Step   int64  `json:"step"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// String renders the entry as it appears in golden files.
func (e TraceEntry) String() string {
	return strings.TrimRight(fmt.Sprintf("%03d %-13s %s", e.Step, e.Kind, e.Detail), " ")
}

// matches reports whether the entry matches a pattern of the form "<kind>"
// or "<kind> <detail prefix>".
func (e TraceEntry) matches(pattern string) bool {
	kind, detail, _ := strings.Cut(pattern, " ")
	return e.Kind == kind && strings.HasPrefix(e.Detail, detail)
}

// recorder builds a trace from engine notifications and played sounds.
// It is both an engine listener and an audio.Player.
type recorder struct {
	mu      sync.Mutex
	clock   *testutil.DeterministicClock
	entries []TraceEntry
}

func newRecorder() *recorder {
	return &recorder{clock: testutil.NewDeterministicClock()}
}

func (r *recorder) add(kind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, TraceEntry{Step: r.clock.Next(), Kind: kind, Detail: detail})
}

// Play records a sound cue.
func (r *recorder) Play(id audio.SoundID) {
	r.add(KindSound, string(id))
}

// observe records a notification.
func (r *recorder) observe(ev engine.Event) {
	r.add(ev.Type.String(), describe(ev))
}

func (r *recorder) trace() []TraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TraceEntry{}, r.entries...)
}

// describe formats an event payload for the trace.
func describe(ev engine.Event) string {
	switch ev.Type {
	case engine.EventBlockStart:
		return fmt.Sprintf("n=%d trials=%d", ev.BlockStart.N, ev.BlockStart.TotalTrials)
	case engine.EventTrialStart:
		ts := ev.TrialStart
		return fmt.Sprintf("trial=%d/%d match=%t", ts.TrialIndex, ts.TotalTrials, ts.IsMatch)
	case engine.EventTrialEnd:
		te := ev.TrialEnd
		return fmt.Sprintf("trial=%d pressed=%t match=%t correct=%t outcome=%s",
			te.TrialIndex, te.UserPressed, te.WasMatch, te.Correct, te.Outcome)
	case engine.EventBlockComplete:
		bc := ev.BlockComplete
		r := bc.Results
		return fmt.Sprintf("hits=%d misses=%d false_alarms=%d correct_rejections=%d accuracy=%.3f n=%d next=%d",
			r.Hits, r.Misses, r.FalseAlarms, r.CorrectRejections, r.Accuracy, bc.CurrentN, bc.NextLevel)
	default:
		return ""
	}
}

// Render formats a trace as golden file text, one entry per line.
func Render(trace []TraceEntry) []byte {
	var buf strings.Builder
	for _, e := range trace {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}
