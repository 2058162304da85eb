package scoring

import "fmt"

// Default adaptive thresholds and level bounds.
const (
	DefaultIncreaseThreshold = 0.85
	DefaultDecreaseThreshold = 0.70
	DefaultMinN              = 1
	DefaultMaxN              = 9
)

// Thresholds configures the adaptive level rule.
type Thresholds struct {
	Increase float64 `json:"increase"` // accuracy >= Increase moves up one level
	Decrease float64 `json:"decrease"` // accuracy < Decrease moves down one level
	MinN     int     `json:"min_n"`
	MaxN     int     `json:"max_n"`
}

// DefaultThresholds returns 0.85 / 0.70 over levels 1..9.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Increase: DefaultIncreaseThreshold,
		Decrease: DefaultDecreaseThreshold,
		MinN:     DefaultMinN,
		MaxN:     DefaultMaxN,
	}
}

// Validate checks that the thresholds describe a usable rule.
func (t Thresholds) Validate() error {
	if t.MinN < 1 {
		return fmt.Errorf("min level must be >= 1, got %d", t.MinN)
	}
	if t.MaxN < t.MinN {
		return fmt.Errorf("max level %d below min level %d", t.MaxN, t.MinN)
	}
	if t.Decrease >= t.Increase {
		return fmt.Errorf("decrease threshold %.2f must be below increase threshold %.2f", t.Decrease, t.Increase)
	}
	return nil
}

// Clamp coerces n into [MinN, MaxN].
func (t Thresholds) Clamp(n int) int {
	if n < t.MinN {
		return t.MinN
	}
	if n > t.MaxN {
		return t.MaxN
	}
	return n
}

// NextLevel applies the adaptive rule to a finished block.
func (t Thresholds) NextLevel(currentN int, accuracy float64) int {
	switch {
	case accuracy >= t.Increase:
		return min(currentN+1, t.MaxN)
	case accuracy < t.Decrease:
		return max(currentN-1, t.MinN)
	default:
		return currentN
	}
}

// CalculateNextLevel applies the default thresholds.
func CalculateNextLevel(currentN int, accuracy float64) int {
	return DefaultThresholds().NextLevel(currentN, accuracy)
}
