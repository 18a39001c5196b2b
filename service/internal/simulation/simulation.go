// internal/simulation/simulation.go
package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/engine/agent"
	"github.com/jason-s-yu/tomgame/service/internal/population"
	"github.com/sirupsen/logrus"
)

// Names of the two simulation variants.
const (
	NameRegular   = "regular"
	NameSignaling = "signaling"
)

// ErrInvalidRounds is returned when a run is asked for fewer than one round.
var ErrInvalidRounds = errors.New("rounds must be positive")

// EventType identifies what a RoundEvent reports.
type EventType string

const (
	EventRoundComplete EventType = "round_complete" // One round was played and learned from.
	EventRunComplete   EventType = "run_complete"   // Run finished all requested rounds.
	EventRunCancelled  EventType = "run_cancelled"  // Run stopped early on context cancellation.
)

// RoundEvent is delivered to OnEventFn as the simulation progresses.
type RoundEvent struct {
	Type  EventType `json:"type"`
	RunID uuid.UUID `json:"runId"`
	Round *Round    `json:"round,omitempty"` // Set for EventRoundComplete.
}

// Round is the record of a single played round.
type Round struct {
	Index   int             `json:"index"`
	Signals []engine.Action `json:"signals,omitempty"` // Emitted signals, in signaler order.
	Actions []engine.Action `json:"actions"`           // Decisions, in member order.
	Scores  []int           `json:"scores"`            // Points earned this round.
}

// Simulation drives a population through repeated rounds of the mod game.
// A Simulation is not safe for concurrent use.
type Simulation struct {
	ID    uuid.UUID
	Name  string
	Rules engine.GameRules
	Pop   *population.Population

	// OnEventFn, if set, observes every round and the end of a run.
	OnEventFn func(ev RoundEvent)

	signalers []agent.Signaler
	receivers []agent.SignalReceiver

	scores []int
	last   []engine.Action
	rounds int

	log *logrus.Entry
}

// New wraps an already built population. A nil log discards output.
func New(name string, pop *population.Population, rules engine.GameRules, log *logrus.Entry) (*Simulation, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if pop == nil || pop.Len() == 0 {
		return nil, population.ErrEmptyPopulation
	}
	if log == nil {
		log = discardEntry()
	}
	id := uuid.New()
	return &Simulation{
		ID:        id,
		Name:      name,
		Rules:     rules,
		Pop:       pop,
		signalers: pop.Signalers(),
		receivers: pop.Receivers(),
		scores:    make([]int, pop.Len()),
		last:      make([]engine.Action, pop.Len()),
		log:       log.WithFields(logrus.Fields{"run_id": id, "simulation": name}),
	}, nil
}

// NewRegular builds a simulation of plain agents.
func NewRegular(cfg population.Config, rules engine.GameRules, seed uint64, log *logrus.Entry) (*Simulation, error) {
	pop, err := population.Build(cfg, rules, seed)
	if err != nil {
		return nil, fmt.Errorf("building regular population: %w", err)
	}
	return New(NameRegular, pop, rules, log)
}

// NewSignaling builds a simulation mixing signaling, plain and receiving agents.
func NewSignaling(cfg population.SignalingConfig, rules engine.GameRules, seed uint64, log *logrus.Entry) (*Simulation, error) {
	pop, err := population.BuildSignaling(cfg, rules, seed)
	if err != nil {
		return nil, fmt.Errorf("building signaling population: %w", err)
	}
	return New(NameSignaling, pop, rules, log)
}

// Step plays one round: signals are emitted and delivered to every
// receiver, every member decides, the round is scored, and every member
// learns from its feedback action.
func (s *Simulation) Step() Round {
	r := Round{Index: s.rounds}

	if len(s.signalers) > 0 {
		r.Signals = make([]engine.Action, len(s.signalers))
		for i, sg := range s.signalers {
			r.Signals[i] = sg.Signal()
		}
		for _, rc := range s.receivers {
			for _, sig := range r.Signals {
				rc.ProcessSignal(sig)
			}
		}
	}

	r.Actions = make([]engine.Action, s.Pop.Len())
	for i, m := range s.Pop.Members {
		r.Actions[i] = m.Agent.Decide()
	}

	r.Scores = engine.Scores(r.Actions, s.Rules.NumChoices)
	for i, v := range r.Scores {
		s.scores[i] += v
	}

	feedback := s.Rules.FeedbackFor(r.Actions)
	for i, m := range s.Pop.Members {
		m.Agent.Update(feedback[i])
	}

	copy(s.last, r.Actions)
	s.rounds++
	return r
}

// Run plays the given number of rounds, stopping early if ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, rounds int) error {
	if rounds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, rounds)
	}
	s.log.WithField("rounds", rounds).Debug("Run starting.")
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			s.log.WithField("played", s.rounds).Warn("Run cancelled.")
			s.emit(RoundEvent{Type: EventRunCancelled, RunID: s.ID})
			return err
		}
		r := s.Step()
		if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
			s.log.WithFields(logrus.Fields{"round": r.Index, "actions": r.Actions}).Trace("Round played.")
		}
		s.emit(RoundEvent{Type: EventRoundComplete, RunID: s.ID, Round: &r})
	}
	s.log.WithField("played", s.rounds).Debug("Run complete.")
	s.emit(RoundEvent{Type: EventRunComplete, RunID: s.ID})
	return nil
}

func (s *Simulation) emit(ev RoundEvent) {
	if s.OnEventFn != nil {
		s.OnEventFn(ev)
	}
}

// Rounds returns the number of rounds played so far.
func (s *Simulation) Rounds() int { return s.rounds }

// Scores returns a copy of the accumulated per-member scores.
func (s *Simulation) Scores() []int {
	out := make([]int, len(s.scores))
	copy(out, s.scores)
	return out
}

// LastActions returns a copy of the decisions of the most recent round.
func (s *Simulation) LastActions() []engine.Action {
	out := make([]engine.Action, len(s.last))
	copy(out, s.last)
	return out
}
