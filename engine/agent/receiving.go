package agent

import (
	"math/rand/v2"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// ---------------------------------------------------------------------------
// ZeroOrderReceiving
// ---------------------------------------------------------------------------

// ZeroOrderReceiving accumulates the round's signals into a per-round
// BeliefVector and acts on the intentions learned for the dominant signal.
// The per-round beliefs are redrawn after every update.
type ZeroOrderReceiving struct {
	env
	beliefs    BeliefVector // perceived signals, reset every round
	intentions BeliefMatrix // row = perceived signal, column = action
}

// NewZeroOrderReceiving returns a zero-order receiving agent with fresh
// random beliefs and intentions.
func NewZeroOrderReceiving(rules engine.GameRules, rng *rand.Rand) (*ZeroOrderReceiving, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	return &ZeroOrderReceiving{
		env:        e,
		beliefs:    NewBeliefVector(rng, e.k()),
		intentions: NewBeliefMatrix(rng, e.k()),
	}, nil
}

// NewZeroOrderReceivingWith returns a zero-order receiving agent that takes
// ownership of beliefs and intentions.
func NewZeroOrderReceivingWith(rules engine.GameRules, rng *rand.Rand, beliefs BeliefVector, intentions BeliefMatrix) (*ZeroOrderReceiving, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if err := beliefs.validate("signal beliefs", e.k()); err != nil {
		return nil, err
	}
	if err := intentions.validate("intentions", e.k()); err != nil {
		return nil, err
	}
	return &ZeroOrderReceiving{env: e, beliefs: beliefs, intentions: intentions}, nil
}

// Kind returns order-0/receiving.
func (a *ZeroOrderReceiving) Kind() Kind { return Kind{OrderZero, RoleReceiving} }

// Beliefs returns a copy of the per-round signal beliefs.
func (a *ZeroOrderReceiving) Beliefs() BeliefVector { return a.beliefs.Clone() }

// Intentions returns a copy of the intentions matrix.
func (a *ZeroOrderReceiving) Intentions() BeliefMatrix { return a.intentions.Clone() }

// PerceivedSignal returns the signal currently carrying the most belief.
func (a *ZeroOrderReceiving) PerceivedSignal() engine.Action {
	return engine.Action(a.beliefs.Argmax())
}

// ProcessSignal shifts the per-round beliefs toward signal using the
// signal learning speed.
func (a *ZeroOrderReceiving) ProcessSignal(signal engine.Action) {
	a.beliefs.Reinforce(int(signal), a.rules.SignalLearningSpeed, a.rules.Decay)
}

// Decide returns the highest-weight intention for the perceived signal.
// It does not explore.
func (a *ZeroOrderReceiving) Decide() engine.Action {
	return engine.Action(a.intentions[a.PerceivedSignal()].Argmax())
}

// Update reinforces the realized action in the perceived signal's intentions
// row and redraws the per-round beliefs.
func (a *ZeroOrderReceiving) Update(realized engine.Action) {
	row := a.PerceivedSignal()
	a.intentions[row].Reinforce(int(realized), a.rules.LearningSpeed, a.rules.Decay)
	a.beliefs = NewBeliefVector(a.rng, a.k())
}

// ---------------------------------------------------------------------------
// FirstOrderReceiving
// ---------------------------------------------------------------------------

// FirstOrderReceiving plays one step ahead of a nested zero-order receiving
// model that sees the same signals.
type FirstOrderReceiving struct {
	env
	zero *ZeroOrderReceiving
}

// NewFirstOrderReceiving returns a first-order receiving agent wrapping a
// fresh nested model.
func NewFirstOrderReceiving(rules engine.GameRules, rng *rand.Rand) (*FirstOrderReceiving, error) {
	zero, err := NewZeroOrderReceiving(rules, rng)
	if err != nil {
		return nil, err
	}
	return &FirstOrderReceiving{env: zero.env, zero: zero}, nil
}

// NewFirstOrderReceivingWith returns a first-order receiving agent that takes
// ownership of zero.
func NewFirstOrderReceivingWith(rules engine.GameRules, rng *rand.Rand, zero *ZeroOrderReceiving) (*FirstOrderReceiving, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order receiving model", zero.env); err != nil {
		return nil, err
	}
	return &FirstOrderReceiving{env: e, zero: zero}, nil
}

// Kind returns order-1/receiving.
func (a *FirstOrderReceiving) Kind() Kind { return Kind{OrderFirst, RoleReceiving} }

// ZeroOrder returns the nested zero-order receiving model.
func (a *FirstOrderReceiving) ZeroOrder() *ZeroOrderReceiving { return a.zero }

// ProcessSignal forwards the signal to the nested model.
func (a *FirstOrderReceiving) ProcessSignal(signal engine.Action) {
	a.zero.ProcessSignal(signal)
}

// Decide returns a random action with probability ε, otherwise the nested
// model's decision plus one (mod K).
func (a *FirstOrderReceiving) Decide() engine.Action {
	if a.explore() {
		return a.randomAction()
	}
	return a.next(a.zero.Decide())
}

// Update forwards the realized action to the nested model.
func (a *FirstOrderReceiving) Update(realized engine.Action) {
	a.zero.Update(realized)
}

// ---------------------------------------------------------------------------
// SecondOrderReceiving
// ---------------------------------------------------------------------------

// SecondOrderReceiving holds zero- and first-order receiving models, both fed
// every signal, and acts through whichever its OrderBelief prefers.
type SecondOrderReceiving struct {
	env
	zero  *ZeroOrderReceiving
	first *FirstOrderReceiving
	meta  metaReasoner
}

// NewSecondOrderReceiving returns a second-order receiving agent with fresh
// nested models and a random OrderBelief.
func NewSecondOrderReceiving(rules engine.GameRules, rng *rand.Rand) (*SecondOrderReceiving, error) {
	zero, err := NewZeroOrderReceiving(rules, rng)
	if err != nil {
		return nil, err
	}
	first, err := NewFirstOrderReceiving(rules, rng)
	if err != nil {
		return nil, err
	}
	return &SecondOrderReceiving{env: zero.env, zero: zero, first: first, meta: metaReasoner{NewOrderBelief(rng)}}, nil
}

// NewSecondOrderReceivingWith returns a second-order receiving agent that
// takes ownership of the nested models and starts from belief.
func NewSecondOrderReceivingWith(rules engine.GameRules, rng *rand.Rand, zero *ZeroOrderReceiving, first *FirstOrderReceiving, belief OrderBelief) (*SecondOrderReceiving, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil || first == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order receiving model", zero.env); err != nil {
		return nil, err
	}
	if err := e.checkNested("first-order receiving model", first.env); err != nil {
		return nil, err
	}
	if err := belief.validate(); err != nil {
		return nil, err
	}
	return &SecondOrderReceiving{env: e, zero: zero, first: first, meta: metaReasoner{belief}}, nil
}

// Kind returns order-2/receiving.
func (a *SecondOrderReceiving) Kind() Kind { return Kind{OrderSecond, RoleReceiving} }

// OrderBelief returns the current order weights.
func (a *SecondOrderReceiving) OrderBelief() OrderBelief { return a.meta.belief }

// ProcessSignal forwards the signal to both nested models.
func (a *SecondOrderReceiving) ProcessSignal(signal engine.Action) {
	a.zero.ProcessSignal(signal)
	a.first.ProcessSignal(signal)
}

// Decide acts through the branch chosen by the OrderBelief and plays one
// step ahead of it.
func (a *SecondOrderReceiving) Decide() engine.Action {
	if a.meta.branch(a.env) == BranchZero {
		return a.next(a.zero.Decide())
	}
	return a.next(a.first.Decide())
}

// Update mirrors SecondOrder.Update over the receiving models.
func (a *SecondOrderReceiving) Update(realized engine.Action) {
	zeroCF := a.next(a.zero.Decide())
	firstCF := a.next(a.first.Decide())

	a.zero.Update(realized)
	a.first.Update(realized)

	a.meta.observe(a.env, realized, zeroCF, firstCF)
}
