package agent

import (
	"math/rand/v2"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// ---------------------------------------------------------------------------
// ZeroOrder
// ---------------------------------------------------------------------------

// ZeroOrder acts greedily on a BeliefVector over actions and reinforces the
// realized action each round.
type ZeroOrder struct {
	env
	beliefs BeliefVector
}

// NewZeroOrder returns a zero-order agent with fresh random beliefs.
func NewZeroOrder(rules engine.GameRules, rng *rand.Rand) (*ZeroOrder, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	return &ZeroOrder{env: e, beliefs: NewBeliefVector(rng, e.k())}, nil
}

// NewZeroOrderWith returns a zero-order agent that takes ownership of beliefs.
func NewZeroOrderWith(rules engine.GameRules, rng *rand.Rand, beliefs BeliefVector) (*ZeroOrder, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if err := beliefs.validate("beliefs", e.k()); err != nil {
		return nil, err
	}
	return &ZeroOrder{env: e, beliefs: beliefs}, nil
}

// Kind returns order-0/plain.
func (a *ZeroOrder) Kind() Kind { return Kind{OrderZero, RolePlain} }

// Beliefs returns a copy of the current belief vector.
func (a *ZeroOrder) Beliefs() BeliefVector { return a.beliefs.Clone() }

// Decide returns a random action with probability ε, otherwise the action
// with the greatest belief.
func (a *ZeroOrder) Decide() engine.Action {
	if a.explore() {
		return a.randomAction()
	}
	return engine.Action(a.beliefs.Argmax())
}

// Update reinforces the realized action.
func (a *ZeroOrder) Update(realized engine.Action) {
	a.beliefs.Reinforce(int(realized), a.rules.LearningSpeed, a.rules.Decay)
}

// ---------------------------------------------------------------------------
// FirstOrder
// ---------------------------------------------------------------------------

// FirstOrder predicts the decision of a nested zero-order model and plays one
// step ahead of it.
type FirstOrder struct {
	env
	zero *ZeroOrder
}

// NewFirstOrder returns a first-order agent wrapping a fresh zero-order model.
func NewFirstOrder(rules engine.GameRules, rng *rand.Rand) (*FirstOrder, error) {
	zero, err := NewZeroOrder(rules, rng)
	if err != nil {
		return nil, err
	}
	return &FirstOrder{env: zero.env, zero: zero}, nil
}

// NewFirstOrderWith returns a first-order agent that takes ownership of zero.
func NewFirstOrderWith(rules engine.GameRules, rng *rand.Rand, zero *ZeroOrder) (*FirstOrder, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order model", zero.env); err != nil {
		return nil, err
	}
	return &FirstOrder{env: e, zero: zero}, nil
}

// Kind returns order-1/plain.
func (a *FirstOrder) Kind() Kind { return Kind{OrderFirst, RolePlain} }

// ZeroOrder returns the nested zero-order model.
func (a *FirstOrder) ZeroOrder() *ZeroOrder { return a.zero }

// Decide returns a random action with probability ε, otherwise the nested
// model's decision plus one (mod K).
func (a *FirstOrder) Decide() engine.Action {
	if a.explore() {
		return a.randomAction()
	}
	return a.next(a.zero.Decide())
}

// Update forwards the realized action to the nested model.
func (a *FirstOrder) Update(realized engine.Action) {
	a.zero.Update(realized)
}

// ---------------------------------------------------------------------------
// SecondOrder
// ---------------------------------------------------------------------------

// SecondOrder holds a zero-order and a first-order model of its opponents
// and acts one step ahead of whichever its OrderBelief prefers.
type SecondOrder struct {
	env
	zero  *ZeroOrder
	first *FirstOrder
	meta  metaReasoner
}

// NewSecondOrder returns a second-order agent with fresh nested models and a
// random OrderBelief.
func NewSecondOrder(rules engine.GameRules, rng *rand.Rand) (*SecondOrder, error) {
	zero, err := NewZeroOrder(rules, rng)
	if err != nil {
		return nil, err
	}
	first, err := NewFirstOrder(rules, rng)
	if err != nil {
		return nil, err
	}
	return &SecondOrder{env: zero.env, zero: zero, first: first, meta: metaReasoner{NewOrderBelief(rng)}}, nil
}

// NewSecondOrderWith returns a second-order agent that takes ownership of the
// nested models and starts from belief.
func NewSecondOrderWith(rules engine.GameRules, rng *rand.Rand, zero *ZeroOrder, first *FirstOrder, belief OrderBelief) (*SecondOrder, error) {
	e, err := newEnv(rules, rng)
	if err != nil {
		return nil, err
	}
	if zero == nil || first == nil {
		return nil, ErrNoNestedAgent
	}
	if err := e.checkNested("zero-order model", zero.env); err != nil {
		return nil, err
	}
	if err := e.checkNested("first-order model", first.env); err != nil {
		return nil, err
	}
	if err := belief.validate(); err != nil {
		return nil, err
	}
	return &SecondOrder{env: e, zero: zero, first: first, meta: metaReasoner{belief}}, nil
}

// Kind returns order-2/plain.
func (a *SecondOrder) Kind() Kind { return Kind{OrderSecond, RolePlain} }

// OrderBelief returns the current order weights.
func (a *SecondOrder) OrderBelief() OrderBelief { return a.meta.belief }

// Decide acts through the branch chosen by the OrderBelief and plays one
// step ahead of it.
func (a *SecondOrder) Decide() engine.Action {
	if a.meta.branch(a.env) == BranchZero {
		return a.next(a.zero.Decide())
	}
	return a.next(a.first.Decide())
}

// Update records what each nested model would have led to, updates both
// models and then credits the OrderBelief branch that matched.
func (a *SecondOrder) Update(realized engine.Action) {
	zeroCF := a.next(a.zero.Decide())
	firstCF := a.next(a.first.Decide())

	a.zero.Update(realized)
	a.first.Update(realized)

	a.meta.observe(a.env, realized, zeroCF, firstCF)
}
