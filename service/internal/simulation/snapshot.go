// internal/simulation/snapshot.go
package simulation

import (
	"github.com/google/uuid"
	engine "github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/engine/agent"
)

// MemberState is the observable state of one agent.
type MemberState struct {
	ID         uuid.UUID     `json:"id"`
	Index      int           `json:"index"`
	Kind       string        `json:"kind"`
	Score      int           `json:"score"`
	LastAction engine.Action `json:"lastAction"`
	// OrderBelief is populated only for second-order agents.
	OrderBelief *agent.OrderBelief `json:"orderBelief,omitempty"`
	// Signal is populated only for signaling agents that have signaled.
	Signal *engine.Action `json:"signal,omitempty"`
}

// State is a point-in-time view of a simulation.
type State struct {
	RunID      uuid.UUID        `json:"runId"`
	Simulation string           `json:"simulation"`
	Rounds     int              `json:"rounds"`
	Rules      engine.GameRules `json:"rules"`
	Members    []MemberState    `json:"members"`
}

type orderBeliever interface {
	OrderBelief() agent.OrderBelief
}

type signalHolder interface {
	ChosenSignal() engine.Action
}

// Snapshot reports the current state of every member.
func (s *Simulation) Snapshot() State {
	st := State{
		RunID:      s.ID,
		Simulation: s.Name,
		Rounds:     s.rounds,
		Rules:      s.Rules,
		Members:    make([]MemberState, 0, s.Pop.Len()),
	}
	for i, m := range s.Pop.Members {
		ms := MemberState{
			ID:         m.ID,
			Index:      m.Index,
			Kind:       m.Agent.Kind().String(),
			Score:      s.scores[i],
			LastAction: s.last[i],
		}
		if ob, ok := m.Agent.(orderBeliever); ok {
			b := ob.OrderBelief()
			ms.OrderBelief = &b
		}
		if sh, ok := m.Agent.(signalHolder); ok && s.rounds > 0 {
			sig := sh.ChosenSignal()
			ms.Signal = &sig
		}
		st.Members = append(st.Members, ms)
	}
	return st
}
