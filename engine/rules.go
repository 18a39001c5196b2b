package engine

import "math"

// Default rule values of the reference mod game.
const (
	DefaultNumChoices          uint16  = 23
	DefaultEpsilon             float64 = 0.1
	DefaultLearningSpeed       float64 = 0.1
	DefaultSignalLearningSpeed float64 = 0.4
)

// GameRules holds the constants shared by every agent of a simulation.
type GameRules struct {
	NumChoices          uint16       `json:"numChoices" yaml:"num_choices"`                    // K, size of the choice set
	Epsilon             float64      `json:"epsilon" yaml:"epsilon"`                           // exploration probability
	LearningSpeed       float64      `json:"learningSpeed" yaml:"learning_speed"`              // step size of the decay+reinforce update
	SignalLearningSpeed float64      `json:"signalLearningSpeed" yaml:"signal_learning_speed"` // step size when a receiver processes a signal; beliefs are reset every round
	Decay               DecayMode    `json:"decay" yaml:"decay"`                               // rescale behavior of decay+reinforce
	Feedback            FeedbackMode `json:"feedback" yaml:"feedback"`                         // realized action fed to Update by the driver
}

// DefaultGameRules returns the reference mod game rules.
func DefaultGameRules() GameRules {
	return GameRules{
		NumChoices:          DefaultNumChoices,
		Epsilon:             DefaultEpsilon,
		LearningSpeed:       DefaultLearningSpeed,
		SignalLearningSpeed: DefaultSignalLearningSpeed,
		Decay:               DecayNormalize,
		Feedback:            FeedbackOwn,
	}
}

// Validate reports the first misconfigured field, wrapped in ErrInvalidRules.
func (r GameRules) Validate() error {
	if r.NumChoices < 2 {
		return invalidRules("choice set size must be at least 2, got %d", r.NumChoices)
	}
	if !inUnit(r.Epsilon) {
		return invalidRules("epsilon must be in [0, 1], got %v", r.Epsilon)
	}
	if !isStep(r.LearningSpeed) {
		return invalidRules("learning speed must be in (0, 1], got %v", r.LearningSpeed)
	}
	if !isStep(r.SignalLearningSpeed) {
		return invalidRules("signal learning speed must be in (0, 1], got %v", r.SignalLearningSpeed)
	}
	if r.Decay > DecayInert {
		return invalidRules("unknown decay mode %d", r.Decay)
	}
	if r.Feedback > FeedbackPopulation {
		return invalidRules("unknown feedback mode %d", r.Feedback)
	}
	return nil
}

// ValidAction returns ErrInvalidAction unless a lies in [0, K).
func (r GameRules) ValidAction(a Action) error {
	if !a.Valid(r.NumChoices) {
		return invalidAction(a, r.NumChoices)
	}
	return nil
}

func inUnit(v float64) bool { return !math.IsNaN(v) && v >= 0 && v <= 1 }

func isStep(v float64) bool { return !math.IsNaN(v) && v > 0 && v <= 1 }
