// Package agent implements Theory of Mind agents for the mod game.
//
// Agents come in three orders (0, 1, 2) and three roles (plain, signaling,
// receiving). A higher-order agent owns its nested lower-order agents and
// derives its decision from theirs; second-order agents additionally keep an
// OrderBelief over which nested model explains observed behavior best.
//
// Every agent draws randomness from the *rand.Rand it was constructed with
// and never touches another agent's state. Agents are not safe for
// concurrent use.
package agent

import (
	"errors"
	"fmt"
	"math/rand/v2"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// ErrNoRandomSource is returned when an agent is constructed without a *rand.Rand.
var ErrNoRandomSource = errors.New("agent requires a random source")

// ErrNoNestedAgent is returned when a higher-order agent is given a nil nested agent.
var ErrNoNestedAgent = errors.New("higher-order agent requires nested agents")

// ErrNestedRules is returned when a nested agent was built with different rules
// than the agent wrapping it.
var ErrNestedRules = errors.New("nested agent rules differ from its owner")

// Decider chooses an action for the current round.
type Decider interface {
	Decide() engine.Action
}

// Updater learns from the action realized in a finished round.
// realized must lie in [0, K).
type Updater interface {
	Update(realized engine.Action)
}

// Agent is the capability set shared by every variant.
type Agent interface {
	Decider
	Updater
	Kind() Kind
}

// Signaler emits a signal before deciding in the same round.
type Signaler interface {
	Agent
	Signal() engine.Action
}

// SignalReceiver consumes signals emitted by others before deciding.
type SignalReceiver interface {
	Agent
	ProcessSignal(signal engine.Action)
}

var (
	_ Agent          = (*ZeroOrder)(nil)
	_ Agent          = (*FirstOrder)(nil)
	_ Agent          = (*SecondOrder)(nil)
	_ Signaler       = (*ZeroOrderSignaling)(nil)
	_ Signaler       = (*FirstOrderSignaling)(nil)
	_ Signaler       = (*SecondOrderSignaling)(nil)
	_ SignalReceiver = (*ZeroOrderReceiving)(nil)
	_ SignalReceiver = (*FirstOrderReceiving)(nil)
	_ SignalReceiver = (*SecondOrderReceiving)(nil)
)

// ---------------------------------------------------------------------------
// shared construction and exploration state
// ---------------------------------------------------------------------------

// env carries the rules and random source an agent tree shares.
type env struct {
	rules engine.GameRules
	rng   *rand.Rand
}

func newEnv(rules engine.GameRules, rng *rand.Rand) (env, error) {
	if err := rules.Validate(); err != nil {
		return env{}, err
	}
	if rng == nil {
		return env{}, ErrNoRandomSource
	}
	return env{rules: rules, rng: rng}, nil
}

func (e env) k() int { return int(e.rules.NumChoices) }

func (e env) explore() bool { return engine.Explore(e.rng, e.rules.Epsilon) }

func (e env) randomAction() engine.Action { return engine.RandomAction(e.rng, e.rules.NumChoices) }

func (e env) next(a engine.Action) engine.Action { return a.Next(e.rules.NumChoices) }

// checkNested fails unless a nested agent was built with the same rules.
// A different choice set is reported as ErrBeliefLength.
func (e env) checkNested(what string, nested env) error {
	if nested.rules.NumChoices != e.rules.NumChoices {
		return fmt.Errorf("%w: %s built for K=%d, want K=%d",
			engine.ErrBeliefLength, what, nested.rules.NumChoices, e.rules.NumChoices)
	}
	if nested.rules != e.rules {
		return fmt.Errorf("%w: %s built with %+v, want %+v", ErrNestedRules, what, nested.rules, e.rules)
	}
	return nil
}

// ---------------------------------------------------------------------------
// meta (order) belief mechanism
// ---------------------------------------------------------------------------

// metaReasoner tracks which nested model of a second-order agent predicts
// the realized actions better.
type metaReasoner struct {
	belief OrderBelief
}

// branch picks the nested model to act through: uniformly at random with
// probability ε, otherwise the preferred branch.
func (m *metaReasoner) branch(e env) int {
	if e.explore() {
		return engine.RandomBranch(e.rng, 2)
	}
	return m.belief.Preferred()
}

// observe credits the branch whose counterfactual decision matched the
// realized action, BranchZero when both did. Nothing changes when neither did.
func (m *metaReasoner) observe(e env, realized, zeroCF, firstCF engine.Action) {
	switch realized {
	case zeroCF:
		m.belief.Reinforce(BranchZero, e.rules.LearningSpeed, e.rules.Decay)
	case firstCF:
		m.belief.Reinforce(BranchFirst, e.rules.LearningSpeed, e.rules.Decay)
	}
}
