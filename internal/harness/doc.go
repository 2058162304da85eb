// Package harness runs scripted n-back blocks against the real engine and
// checks the resulting trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: one_back_mixed
//	description: "Hits, a miss and a false alarm at n=1"
//	n: 1
//	stimuli: [C, C, H, K, K]
//	matches: [1, 4]          # optional; checked against stimuli
//	presses: [1, 2]          # trials with a press
//	control:
//	  pause_at: 2            # pause during trial 2, resume after it
//	  stop_at: 3             # stop during trial 3
//	expect:
//	  hits: 1
//	  misses: 1
//	  false_alarms: 1
//	  correct_rejections: 2
//	  next_level: 1
//	assertions:
//	  - type: trace_contains
//	    entry: "sound level-up"
//	  - type: trace_order
//	    entries: [paused, resumed]
//	  - type: trace_count
//	    entry: trialEnd
//	    count: 5
//	  - type: final_state
//	    state: complete
//
// # Trace
//
// Every notification, scripted press and played sound becomes one trace
// entry. Entries are numbered by testutil.DeterministicClock and rendered as
//
//	001 blockStart    n=1 trials=5
//	002 trialStart    trial=0/5 match=false
//	003 sound         letter-c
//
// Presses, pauses and stops are issued from inside engine listeners, so the
// whole block runs on one goroutine and the trace is byte-identical across
// runs. RunWithGolden compares it with testdata/golden/<name>.golden.
package harness
