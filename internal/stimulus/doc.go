// Package stimulus produces the letter sequences presented during an n-back block.
//
// A Sequence is generated once per block and never mutated afterwards. The
// generator guarantees a fixed number of match positions and rules out
// accidental matches everywhere else:
//
//   - every match position p satisfies p >= n and Stimuli[p] == Stimuli[p-n]
//   - every other index i >= n satisfies Stimuli[i] != Stimuli[i-n]
//
// Generation is deterministic for a given seed (see WithSeed), which lets a
// stored session record reproduce the exact sequence the player heard.
package stimulus
