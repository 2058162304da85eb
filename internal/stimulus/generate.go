package stimulus

import (
	"math"
	"math/rand/v2"
	"slices"
)

// DefaultMatchRate is the fraction of eligible positions that become matches.
const DefaultMatchRate = 0.3

// seedStream is the second PCG word. Fixing it means a single uint64 seed
// fully determines a sequence.
const seedStream = 0x6e2d6261636b

// Option configures Generate.
type Option func(*generator)

type generator struct {
	alphabet Alphabet
	rng      *rand.Rand
	seed     uint64
}

// WithSeed makes generation reproducible: the same seed, n, trial count,
// match rate and alphabet always produce the same Sequence.
func WithSeed(seed uint64) Option {
	return func(g *generator) {
		g.seed = seed
		g.rng = rand.New(rand.NewPCG(seed, seedStream))
	}
}

// WithAlphabet replaces the default alphabet. An alphabet that fails
// Validate is ignored and the default is used instead.
func WithAlphabet(a Alphabet) Option {
	return func(g *generator) {
		if a.Validate() == nil {
			g.alphabet = slices.Clone(a)
		}
	}
}

// GuaranteedMatches returns how many match positions a block of totalTrials
// at level n receives: round((totalTrials-n) * matchRate), at least 1 and at
// most the number of eligible positions.
func GuaranteedMatches(n, totalTrials int, matchRate float64) int {
	eligible := totalTrials - n
	if eligible < 1 {
		return 0
	}
	count := int(math.Round(float64(eligible) * matchRate))
	if count < 1 {
		count = 1
	}
	if count > eligible {
		count = eligible
	}
	return count
}

// Generate produces a stimulus sequence for an n-back block.
//
// Parameters are clamped rather than rejected: n below 1 becomes 1,
// totalTrials below n+1 becomes n+1, and a matchRate outside (0, 1] falls
// back to DefaultMatchRate (or 1 when above 1).
func Generate(n, totalTrials int, matchRate float64, opts ...Option) Sequence {
	g := &generator{alphabet: DefaultAlphabet()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(rand.Uint64())(g)
	}

	if n < 1 {
		n = 1
	}
	if totalTrials < n+1 {
		totalTrials = n + 1
	}
	switch {
	case math.IsNaN(matchRate) || matchRate <= 0:
		matchRate = DefaultMatchRate
	case matchRate > 1:
		matchRate = 1
	}

	// Sample match positions uniformly without replacement from [n, totalTrials).
	eligible := totalTrials - n
	count := GuaranteedMatches(n, totalTrials, matchRate)
	positions := g.rng.Perm(eligible)[:count]
	for i := range positions {
		positions[i] += n
	}
	slices.Sort(positions)

	isMatch := make([]bool, totalTrials)
	for _, p := range positions {
		isMatch[p] = true
	}

	stimuli := make([]Symbol, totalTrials)
	for i := 0; i < n; i++ {
		stimuli[i] = g.alphabet[g.rng.IntN(len(g.alphabet))]
	}

	// Index order matters: a copied match symbol must exist before later
	// non-match positions are checked against it.
	for i := n; i < totalTrials; i++ {
		back := stimuli[i-n]
		if isMatch[i] {
			stimuli[i] = back
			continue
		}
		stimuli[i] = g.drawExcept(back)
	}

	return Sequence{
		Stimuli:        stimuli,
		N:              n,
		TotalTrials:    totalTrials,
		MatchPositions: positions,
		Seed:           g.seed,
	}
}

// drawExcept picks uniformly from the alphabet minus the excluded symbol.
func (g *generator) drawExcept(excluded Symbol) Symbol {
	skip := slices.Index(g.alphabet, excluded)
	if skip < 0 {
		return g.alphabet[g.rng.IntN(len(g.alphabet))]
	}
	j := g.rng.IntN(len(g.alphabet) - 1)
	if j >= skip {
		j++
	}
	return g.alphabet[j]
}

// DefaultTrialCount is the standard block length for level n.
func DefaultTrialCount(n int) int {
	if n < 1 {
		n = 1
	}
	return 20 + n
}
