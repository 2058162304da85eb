package stimulus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStimuli_DerivesMatches(t *testing.T) {
	seq := FromStimuli(2, []Symbol{"C", "H", "C", "K", "L", "K"})

	assert.Equal(t, []int{2, 5}, seq.MatchPositions)
	assert.Equal(t, 6, seq.TotalTrials)
	assert.True(t, seq.IsMatch(2))
	assert.False(t, seq.IsMatch(3))
	assert.Equal(t, 2, seq.MatchCount())
	require.NoError(t, seq.Validate())
}

func TestSequence_Validate(t *testing.T) {
	tests := []struct {
		name    string
		seq     Sequence
		wantErr string
	}{
		{
			name:    "too short",
			seq:     Sequence{N: 2, TotalTrials: 2, Stimuli: []Symbol{"C", "H"}},
			wantErr: "must be >= n+1",
		},
		{
			name:    "length mismatch",
			seq:     Sequence{N: 1, TotalTrials: 3, Stimuli: []Symbol{"C", "H"}},
			wantErr: "stimuli length",
		},
		{
			name: "unmarked repeat",
			seq: Sequence{
				N: 1, TotalTrials: 3,
				Stimuli:        []Symbol{"C", "C", "H"},
				MatchPositions: []int{},
			},
			wantErr: "not marked as a match",
		},
		{
			name: "false match marker",
			seq: Sequence{
				N: 1, TotalTrials: 3,
				Stimuli:        []Symbol{"C", "H", "K"},
				MatchPositions: []int{1},
			},
			wantErr: "marked as a match",
		},
		{
			name: "position below n",
			seq: Sequence{
				N: 2, TotalTrials: 4,
				Stimuli:        []Symbol{"C", "H", "C", "H"},
				MatchPositions: []int{1, 2, 3},
			},
			wantErr: "outside",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seq.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAlphabet_Validate(t *testing.T) {
	require.NoError(t, DefaultAlphabet().Validate())
	assert.Len(t, DefaultAlphabet(), AlphabetSize)

	assert.Error(t, Alphabet{"C"}.Validate())
	assert.Error(t, Alphabet{"C", "C"}.Validate())
	assert.Error(t, Alphabet{"C", ""}.Validate())
}

func TestDefaultAlphabet_ReturnsCopy(t *testing.T) {
	a := DefaultAlphabet()
	a[0] = "Z"
	assert.Equal(t, Symbol("C"), DefaultAlphabet()[0])
}
