package engine

// Action is one of the K discrete choices of the mod game, in [0, K).
// Arithmetic on actions is modular; the values carry no other ordering.
type Action uint16

// Valid reports whether the action lies inside a choice set of size k.
func (a Action) Valid(k uint16) bool { return uint16(a) < k }

// Next returns (a + 1) mod k: the action one step ahead of a.
func (a Action) Next(k uint16) Action {
	return Action((uint32(a) + 1) % uint32(k))
}

// Prev returns (a - 1) mod k, wrapping 0 to k-1.
func (a Action) Prev(k uint16) Action {
	return Action((uint32(a) + uint32(k) - 1) % uint32(k))
}

// DecayMode selects how the decay+reinforce update treats the rescale pass.
type DecayMode uint8

const (
	// DecayNormalize rescales the container by (1-speed)/sum before adding
	// speed at the reinforced index, keeping the total mass at 1.
	DecayNormalize DecayMode = iota // 0
	// DecayInert skips the rescale and only adds speed at the reinforced
	// index. The total mass drifts upward by speed per update.
	DecayInert // 1
)

// String returns the configuration name of the mode.
func (m DecayMode) String() string {
	switch m {
	case DecayNormalize:
		return "normalize"
	case DecayInert:
		return "inert"
	default:
		return "unknown"
	}
}

// ParseDecayMode maps a configuration name back to a DecayMode.
func ParseDecayMode(s string) (DecayMode, error) {
	switch s {
	case "normalize", "":
		return DecayNormalize, nil
	case "inert":
		return DecayInert, nil
	}
	return 0, invalidRules("unknown decay mode %q", s)
}

// MarshalText encodes the mode by name.
func (m DecayMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name written by MarshalText.
func (m *DecayMode) UnmarshalText(text []byte) error {
	v, err := ParseDecayMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// FeedbackMode selects which realized action the driver feeds into Update.
type FeedbackMode uint8

const (
	// FeedbackOwn passes every agent the action it played itself.
	FeedbackOwn FeedbackMode = iota // 0
	// FeedbackPopulation passes every agent the round's modal action.
	FeedbackPopulation // 1
)

// String returns the configuration name of the mode.
func (m FeedbackMode) String() string {
	switch m {
	case FeedbackOwn:
		return "own"
	case FeedbackPopulation:
		return "population"
	default:
		return "unknown"
	}
}

// ParseFeedbackMode maps a configuration name back to a FeedbackMode.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch s {
	case "own", "":
		return FeedbackOwn, nil
	case "population":
		return FeedbackPopulation, nil
	}
	return 0, invalidRules("unknown feedback mode %q", s)
}

// MarshalText encodes the mode by name.
func (m FeedbackMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name written by MarshalText.
func (m *FeedbackMode) UnmarshalText(text []byte) error {
	v, err := ParseFeedbackMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
