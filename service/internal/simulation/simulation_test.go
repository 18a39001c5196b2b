// internal/simulation/simulation_test.go
package simulation

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	engine "github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/engine/agent"
	"github.com/jason-s-yu/tomgame/service/internal/population"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func greedyRules() engine.GameRules {
	r := engine.DefaultGameRules()
	r.Epsilon = 0
	return r
}

// forcedAgent always plays the same action and records its feedback.
type forcedAgent struct {
	action   engine.Action
	feedback []engine.Action
}

func (f *forcedAgent) Decide() engine.Action  { return f.action }
func (f *forcedAgent) Update(a engine.Action) { f.feedback = append(f.feedback, a) }
func (f *forcedAgent) Kind() agent.Kind       { return agent.Kind{Order: agent.OrderZero, Role: agent.RolePlain} }

func forcedPopulation(actions ...engine.Action) (*population.Population, []*forcedAgent) {
	pop := &population.Population{}
	var agents []*forcedAgent
	for i, a := range actions {
		fa := &forcedAgent{action: a}
		agents = append(agents, fa)
		pop.Members = append(pop.Members, population.Member{Index: i, Agent: fa})
	}
	pop.Groups = []population.Group{{Kind: agents[0].Kind(), Start: 0, Count: len(actions)}}
	return pop, agents
}

// callLog records agent calls across a population in the order they happen.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

// phase returns the index of the first and last call with the given name,
// or -1, -1 when there is none.
func (l *callLog) phase(call string) (first, last int) {
	first, last = -1, -1
	for i, c := range l.calls {
		if c != call {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

type tracedAgent struct {
	forcedAgent
	log *callLog
}

func (a *tracedAgent) Decide() engine.Action {
	a.log.add("decide")
	return a.forcedAgent.Decide()
}

func (a *tracedAgent) Update(r engine.Action) {
	a.log.add("update")
	a.forcedAgent.Update(r)
}

type tracedSignaler struct{ tracedAgent }

func (a *tracedSignaler) Signal() engine.Action {
	a.log.add("signal")
	return a.action
}

type tracedReceiver struct{ tracedAgent }

func (a *tracedReceiver) ProcessSignal(engine.Action) { a.log.add("process") }

func TestStepScoresRound(t *testing.T) {
	pop, _ := forcedPopulation(4, 5, 5, 22, 0)
	sim, err := New(NameRegular, pop, greedyRules(), testLog())
	require.NoError(t, err)

	r := sim.Step()
	assert.Equal(t, 0, r.Index)
	assert.Empty(t, r.Signals)
	assert.Equal(t, []engine.Action{4, 5, 5, 22, 0}, r.Actions)
	assert.Equal(t, []int{0, 1, 1, 0, 1}, r.Scores)

	sim.Step()
	assert.Equal(t, []int{0, 2, 2, 0, 2}, sim.Scores())
	assert.Equal(t, 2, sim.Rounds())
	assert.Equal(t, []engine.Action{4, 5, 5, 22, 0}, sim.LastActions())
}

func TestFeedbackModes(t *testing.T) {
	pop, agents := forcedPopulation(3, 3, 9)
	sim, err := New(NameRegular, pop, greedyRules(), testLog())
	require.NoError(t, err)
	sim.Step()
	assert.Equal(t, []engine.Action{3}, agents[0].feedback)
	assert.Equal(t, []engine.Action{9}, agents[2].feedback)

	rules := greedyRules()
	rules.Feedback = engine.FeedbackPopulation
	pop, agents = forcedPopulation(3, 3, 9)
	sim, err = New(NameRegular, pop, rules, testLog())
	require.NoError(t, err)
	sim.Step()
	for _, a := range agents {
		assert.Equal(t, []engine.Action{3}, a.feedback)
	}
}

func TestRunRegular(t *testing.T) {
	sim, err := NewRegular(population.Config{ZeroOrder: 10, FirstOrder: 10, SecondOrder: 10}, engine.DefaultGameRules(), 5, testLog())
	require.NoError(t, err)

	var roundEvents, doneEvents int
	sim.OnEventFn = func(ev RoundEvent) {
		switch ev.Type {
		case EventRoundComplete:
			roundEvents++
			require.NotNil(t, ev.Round)
			for _, a := range ev.Round.Actions {
				require.True(t, a.Valid(sim.Rules.NumChoices))
			}
		case EventRunComplete:
			doneEvents++
		}
		assert.Equal(t, sim.ID, ev.RunID)
	}

	require.NoError(t, sim.Run(context.Background(), 50))
	assert.Equal(t, 50, roundEvents)
	assert.Equal(t, 1, doneEvents)
	assert.Equal(t, 50, sim.Rounds())

	results := sim.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "order-0/plain", results[0].Label)
	assert.Equal(t, "order-2/plain", results[2].Label)
	for _, g := range results {
		assert.Equal(t, 10, g.Count)
		assert.GreaterOrEqual(t, g.Mean, 0.0)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := population.SignalingConfig{
		Signaling: population.Config{ZeroOrder: 3, FirstOrder: 3, SecondOrder: 3},
		Plain:     population.Config{ZeroOrder: 3, FirstOrder: 3, SecondOrder: 3},
		Receiving: population.Config{ZeroOrder: 3, FirstOrder: 3, SecondOrder: 3},
	}
	a, err := NewSignaling(cfg, engine.DefaultGameRules(), 11, testLog())
	require.NoError(t, err)
	b, err := NewSignaling(cfg, engine.DefaultGameRules(), 11, testLog())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), 40))
	require.NoError(t, b.Run(context.Background(), 40))
	assert.Equal(t, a.Scores(), b.Scores())
	assert.Equal(t, a.LastActions(), b.LastActions())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSignalingRoundCarriesSignals(t *testing.T) {
	cfg := population.SignalingConfig{
		Signaling: population.Config{ZeroOrder: 2, SecondOrder: 1},
		Receiving: population.Config{FirstOrder: 2},
	}
	sim, err := NewSignaling(cfg, engine.DefaultGameRules(), 3, testLog())
	require.NoError(t, err)
	r := sim.Step()
	assert.Len(t, r.Signals, 3)
	assert.Len(t, r.Actions, 5)
	assert.Len(t, r.Scores, 5)
}

func TestRunHonorsCancellation(t *testing.T) {
	sim, err := NewRegular(population.Config{ZeroOrder: 2}, engine.DefaultGameRules(), 1, testLog())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var cancelled bool
	sim.OnEventFn = func(ev RoundEvent) {
		if ev.Type == EventRoundComplete && ev.Round.Index == 4 {
			cancel()
		}
		if ev.Type == EventRunCancelled {
			cancelled = true
		}
	}
	err = sim.Run(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, cancelled)
	assert.Equal(t, 5, sim.Rounds())
}

func TestNewValidates(t *testing.T) {
	_, err := New(NameRegular, nil, greedyRules(), testLog())
	assert.ErrorIs(t, err, population.ErrEmptyPopulation)

	pop, _ := forcedPopulation(1)
	bad := greedyRules()
	bad.Epsilon = 2
	_, err = New(NameRegular, pop, bad, testLog())
	assert.ErrorIs(t, err, engine.ErrInvalidRules)

	sim, err := New(NameRegular, pop, greedyRules(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, sim.Run(context.Background(), 0), ErrInvalidRounds)

	_, err = NewRegular(population.Config{}, greedyRules(), 0, testLog())
	assert.ErrorIs(t, err, population.ErrEmptyPopulation)
}

func TestSnapshot(t *testing.T) {
	cfg := population.SignalingConfig{
		Signaling: population.Config{ZeroOrder: 1},
		Plain:     population.Config{SecondOrder: 1},
	}
	sim, err := NewSignaling(cfg, engine.DefaultGameRules(), 8, testLog())
	require.NoError(t, err)

	st := sim.Snapshot()
	require.Len(t, st.Members, 2)
	assert.Nil(t, st.Members[0].Signal)

	sim.Step()
	st = sim.Snapshot()
	assert.Equal(t, 1, st.Rounds)
	assert.Equal(t, "order-0/signaling", st.Members[0].Kind)
	require.NotNil(t, st.Members[0].Signal)
	assert.Nil(t, st.Members[0].OrderBelief)
	require.NotNil(t, st.Members[1].OrderBelief)
	assert.Equal(t, sim.Pop.Members[1].ID, st.Members[1].ID)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"decay":"normalize"`)
	assert.Contains(t, string(raw), `"feedback":"own"`)
}

func TestStepDecidesBeforeAnyUpdate(t *testing.T) {
	log := &callLog{}
	members := []agent.Agent{
		&tracedSignaler{tracedAgent{forcedAgent{action: 2}, log}},
		&tracedAgent{forcedAgent{action: 3}, log},
		&tracedReceiver{tracedAgent{forcedAgent{action: 3}, log}},
		&tracedSignaler{tracedAgent{forcedAgent{action: 7}, log}},
		&tracedReceiver{tracedAgent{forcedAgent{action: 8}, log}},
	}
	pop := &population.Population{}
	for i, m := range members {
		pop.Members = append(pop.Members, population.Member{Index: i, Agent: m})
	}
	pop.Groups = []population.Group{{Kind: members[0].Kind(), Start: 0, Count: len(members)}}

	sim, err := New(NameSignaling, pop, greedyRules(), testLog())
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		log.calls = nil
		r := sim.Step()
		assert.Equal(t, []engine.Action{2, 7}, r.Signals)

		firstSignal, lastSignal := log.phase("signal")
		firstProcess, lastProcess := log.phase("process")
		firstDecide, lastDecide := log.phase("decide")
		firstUpdate, _ := log.phase("update")

		require.Equal(t, 0, firstSignal)
		assert.Less(t, lastSignal, firstProcess, "signals are emitted before any is delivered")
		assert.Less(t, lastProcess, firstDecide, "signals are delivered before anyone decides")
		assert.Less(t, lastDecide, firstUpdate, "every member decides before any member updates")
		assert.Len(t, log.calls, 2+2*2+len(members)*2)
	}
}
