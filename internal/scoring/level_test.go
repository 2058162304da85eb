package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNextLevel(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		accuracy float64
		want     int
	}{
		{"increase", 2, 0.86, 3},
		{"decrease", 2, 0.65, 1},
		{"hold", 2, 0.77, 2},
		{"floor clamp", 1, 0.50, 1},
		{"ceiling clamp", 9, 0.95, 9},
		{"increase threshold is inclusive", 4, 0.85, 5},
		{"decrease threshold is exclusive", 4, 0.70, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateNextLevel(tt.current, tt.accuracy))
		})
	}
}

func TestThresholds_CustomBounds(t *testing.T) {
	th := Thresholds{Increase: 0.9, Decrease: 0.5, MinN: 2, MaxN: 4}

	assert.Equal(t, 4, th.NextLevel(4, 0.95))
	assert.Equal(t, 2, th.NextLevel(2, 0.1))
	assert.Equal(t, 3, th.NextLevel(3, 0.85))
	assert.Equal(t, 2, th.Clamp(0))
	assert.Equal(t, 4, th.Clamp(12))
	assert.Equal(t, 3, th.Clamp(3))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Increase: 0.8, Decrease: 0.9, MinN: 1, MaxN: 9}.Validate())
	assert.Error(t, Thresholds{Increase: 0.8, Decrease: 0.5, MinN: 0, MaxN: 9}.Validate())
	assert.Error(t, Thresholds{Increase: 0.8, Decrease: 0.5, MinN: 5, MaxN: 4}.Validate())
}
