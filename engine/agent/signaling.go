package agent

import (
	"math/rand/v2"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// ---------------------------------------------------------------------------
// ZeroOrderSignaling
// ---------------------------------------------------------------------------

// ZeroOrderSignaling picks the signal with the greatest total belief and then
// the best action within that signal's row.
type ZeroOrderSignaling struct {
	env
	beliefs      BeliefMatrix
	chosenSignal engine.Action
	chosenAction engine.Action
}

// NewZeroOrderSignaling returns a zero-order signaling agent with a fresh
// random BeliefMatrix.
func NewZeroOrderSignaling(rules engine.GameRules, rng *rand.Rand) (*ZeroOrderSignaling, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	return &ZeroOrderSignaling{env: e, beliefs: NewBeliefMatrix(rng, e.k())}, nil
}

// NewZeroOrderSignalingWith returns a zero-order signaling agent that takes
// ownership of beliefs.
func NewZeroOrderSignalingWith(rules engine.GameRules, rng *rand.Rand, beliefs BeliefMatrix) (*ZeroOrderSignaling, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if err := beliefs.validate("signal beliefs", e.k()); err != nil {
		return nil, err
	}
	return &ZeroOrderSignaling{env: e, beliefs: beliefs}, nil
}

// Kind returns order-0/signaling.
func (a *ZeroOrderSignaling) Kind() Kind { return Kind{OrderZero, RoleSignaling} }

// Beliefs returns a copy of the signal/action belief matrix.
func (a *ZeroOrderSignaling) Beliefs() BeliefMatrix { return a.beliefs.Clone() }

// ChosenSignal returns the signal of the most recent Signal call.
func (a *ZeroOrderSignaling) ChosenSignal() engine.Action { return a.chosenSignal }

// ChosenAction returns the action of the most recent Decide call.
func (a *ZeroOrderSignaling) ChosenAction() engine.Action { return a.chosenAction }

// Signal returns a random signal with probability ε, otherwise the row with
// the greatest total belief. The choice is kept for Decide and Update.
func (a *ZeroOrderSignaling) Signal() engine.Action {
	if a.explore() {
		a.chosenSignal = a.randomAction()
	} else {
		a.chosenSignal = engine.Action(a.beliefs.ArgmaxRow())
	}
	return a.chosenSignal
}

// Decide returns a random action with probability ε, otherwise the best
// action in the row of the chosen signal.
func (a *ZeroOrderSignaling) Decide() engine.Action {
	if a.explore() {
		a.chosenAction = a.randomAction()
	} else {
		a.chosenAction = engine.Action(a.beliefs[a.chosenSignal].Argmax())
	}
	return a.chosenAction
}

// Update re-decides and, when the decision lands one step ahead of the
// realized action, reinforces it within the chosen signal's row.
func (a *ZeroOrderSignaling) Update(realized engine.Action) {
	decision := a.Decide()
	if decision != a.next(realized) {
		return
	}
	a.beliefs[a.chosenSignal].Reinforce(int(decision), a.rules.LearningSpeed, a.rules.Decay)
}

// ---------------------------------------------------------------------------
// FirstOrderSignaling
// ---------------------------------------------------------------------------

// FirstOrderSignaling signals what its nested zero-order signaling model
// would signal and keeps its own signal/action BeliefMatrix for acting.
type FirstOrderSignaling struct {
	env
	beliefs      BeliefMatrix
	zero         *ZeroOrderSignaling
	chosenSignal engine.Action
	chosenAction engine.Action
}

// NewFirstOrderSignaling returns a first-order signaling agent with a fresh
// nested model and a fresh random BeliefMatrix.
func NewFirstOrderSignaling(rules engine.GameRules, rng *rand.Rand) (*FirstOrderSignaling, error) {
	zero, err := NewZeroOrderSignaling(rules, rng)
	if err != nil {
		return nil, err
	}
	return &FirstOrderSignaling{env: zero.env, beliefs: NewBeliefMatrix(rng, zero.k()), zero: zero}, nil
}

// NewFirstOrderSignalingWith returns a first-order signaling agent that takes
// ownership of beliefs and zero.
func NewFirstOrderSignalingWith(rules engine.GameRules, rng *rand.Rand, beliefs BeliefMatrix, zero *ZeroOrderSignaling) (*FirstOrderSignaling, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order signaling model", zero.env); err != nil {
		return nil, err
	}
	if err := beliefs.validate("signal beliefs", e.k()); err != nil {
		return nil, err
	}
	return &FirstOrderSignaling{env: e, beliefs: beliefs, zero: zero}, nil
}

// Kind returns order-1/signaling.
func (a *FirstOrderSignaling) Kind() Kind { return Kind{OrderFirst, RoleSignaling} }

// Beliefs returns a copy of the agent's own signal/action belief matrix.
func (a *FirstOrderSignaling) Beliefs() BeliefMatrix { return a.beliefs.Clone() }

// ChosenSignal returns the signal of the most recent Signal call.
func (a *FirstOrderSignaling) ChosenSignal() engine.Action { return a.chosenSignal }

// Signal delegates to the nested model. Signals carry no +1 offset.
func (a *FirstOrderSignaling) Signal() engine.Action {
	a.chosenSignal = a.zero.Signal()
	return a.chosenSignal
}

// Decide returns a random action with probability ε, otherwise the best
// action in its own row for the chosen signal.
func (a *FirstOrderSignaling) Decide() engine.Action {
	if a.explore() {
		a.chosenAction = a.randomAction()
	} else {
		a.chosenAction = engine.Action(a.beliefs[a.chosenSignal].Argmax())
	}
	return a.chosenAction
}

// Update forwards to the nested model, re-decides and, when the decision
// lands one step ahead of the realized action, pulls the (signal, decision)
// cell toward 1 while every other cell decays.
func (a *FirstOrderSignaling) Update(realized engine.Action) {
	a.zero.Update(realized)

	decision := a.Decide()
	if decision != a.next(realized) {
		return
	}
	a.beliefs.Pull(int(a.chosenSignal), int(decision), a.rules.LearningSpeed)
}

// ---------------------------------------------------------------------------
// SecondOrderSignaling
// ---------------------------------------------------------------------------

// SecondOrderSignaling holds zero- and first-order signaling models and acts
// through whichever its OrderBelief prefers.
type SecondOrderSignaling struct {
	env
	zero         *ZeroOrderSignaling
	first        *FirstOrderSignaling
	meta         metaReasoner
	chosenSignal engine.Action
}

// NewSecondOrderSignaling returns a second-order signaling agent with fresh
// nested models and a random OrderBelief.
func NewSecondOrderSignaling(rules engine.GameRules, rng *rand.Rand) (*SecondOrderSignaling, error) {
	zero, err := NewZeroOrderSignaling(rules, rng)
	if err != nil {
		return nil, err
	}
	first, err := NewFirstOrderSignaling(rules, rng)
	if err != nil {
		return nil, err
	}
	return &SecondOrderSignaling{env: zero.env, zero: zero, first: first, meta: metaReasoner{NewOrderBelief(rng)}}, nil
}

// NewSecondOrderSignalingWith returns a second-order signaling agent that
// takes ownership of the nested models and starts from belief.
func NewSecondOrderSignalingWith(rules engine.GameRules, rng *rand.Rand, zero *ZeroOrderSignaling, first *FirstOrderSignaling, belief OrderBelief) (*SecondOrderSignaling, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil || first == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order signaling model", zero.env); err != nil {
		return nil, err
	}
	if err := e.checkNested("first-order signaling model", first.env); err != nil {
		return nil, err
	}
	if err := belief.validate(); err != nil {
		return nil, err
	}
	return &SecondOrderSignaling{env: e, zero: zero, first: first, meta: metaReasoner{belief}}, nil
}

// Kind returns order-2/signaling.
func (a *SecondOrderSignaling) Kind() Kind { return Kind{OrderSecond, RoleSignaling} }

// OrderBelief returns the current order weights.
func (a *SecondOrderSignaling) OrderBelief() OrderBelief { return a.meta.belief }

// ChosenSignal returns the signal of the most recent Signal call.
func (a *SecondOrderSignaling) ChosenSignal() engine.Action { return a.chosenSignal }

// Signal refreshes both nested models' signals and returns the one of the
// branch chosen by the OrderBelief, without offset.
func (a *SecondOrderSignaling) Signal() engine.Action {
	zeroSignal := a.zero.Signal()
	firstSignal := a.first.Signal()
	if a.meta.branch(a.env) == BranchZero {
		a.chosenSignal = zeroSignal
	} else {
		a.chosenSignal = firstSignal
	}
	return a.chosenSignal
}

// Decide acts through the branch chosen by the OrderBelief and plays one
// step ahead of it.
func (a *SecondOrderSignaling) Decide() engine.Action {
	if a.meta.branch(a.env) == BranchZero {
		return a.next(a.zero.Decide())
	}
	return a.next(a.first.Decide())
}

// Update mirrors SecondOrder.Update over the signaling models.
func (a *SecondOrderSignaling) Update(realized engine.Action) {
	zeroCF := a.next(a.zero.Decide())
	firstCF := a.next(a.first.Decide())

	a.zero.Update(realized)
	a.first.Update(realized)

	a.meta.observe(a.env, realized, zeroCF, firstCF)
}
