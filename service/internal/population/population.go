// internal/population/population.go
package population

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/engine/agent"
)

var (
	// ErrNegativeCount is returned when a configuration asks for fewer than zero agents of a kind.
	ErrNegativeCount = errors.New("population count must not be negative")
	// ErrEmptyPopulation is returned when a configuration yields no agents at all.
	ErrEmptyPopulation = errors.New("population is empty")
)

// Config holds the number of agents per Theory of Mind order for one role.
type Config struct {
	ZeroOrder   int `yaml:"zero_order" json:"zeroOrder"`
	FirstOrder  int `yaml:"first_order" json:"firstOrder"`
	SecondOrder int `yaml:"second_order" json:"secondOrder"`
}

// Count returns the configured number of agents of the given order.
func (c Config) Count(o agent.Order) int {
	switch o {
	case agent.OrderZero:
		return c.ZeroOrder
	case agent.OrderFirst:
		return c.FirstOrder
	case agent.OrderSecond:
		return c.SecondOrder
	}
	return 0
}

// Total returns the number of agents across all orders.
func (c Config) Total() int { return c.ZeroOrder + c.FirstOrder + c.SecondOrder }

func (c Config) validate(role agent.Role) error {
	for _, o := range orders {
		if n := c.Count(o); n < 0 {
			return fmt.Errorf("%w: %s %s = %d", ErrNegativeCount, o, role, n)
		}
	}
	return nil
}

// Validate rejects negative counts and an empty population.
func (c Config) Validate() error {
	if err := c.validate(agent.RolePlain); err != nil {
		return err
	}
	if c.Total() == 0 {
		return ErrEmptyPopulation
	}
	return nil
}

// SignalingConfig holds per-order counts for every role of a signaling game.
type SignalingConfig struct {
	Signaling Config `yaml:"signaling" json:"signaling"`
	Plain     Config `yaml:"plain" json:"plain"`
	Receiving Config `yaml:"receiving" json:"receiving"`
}

// Role returns the per-order counts of one role.
func (c SignalingConfig) Role(r agent.Role) Config {
	switch r {
	case agent.RoleSignaling:
		return c.Signaling
	case agent.RoleReceiving:
		return c.Receiving
	default:
		return c.Plain
	}
}

// Total returns the number of agents across all roles and orders.
func (c SignalingConfig) Total() int {
	return c.Signaling.Total() + c.Plain.Total() + c.Receiving.Total()
}

// Validate rejects negative counts and an empty population.
func (c SignalingConfig) Validate() error {
	for _, r := range roles {
		if err := c.Role(r).validate(r); err != nil {
			return err
		}
	}
	if c.Total() == 0 {
		return ErrEmptyPopulation
	}
	return nil
}

var (
	orders = []agent.Order{agent.OrderZero, agent.OrderFirst, agent.OrderSecond}
	roles  = []agent.Role{agent.RoleSignaling, agent.RolePlain, agent.RoleReceiving}
)

// Member is one agent of a population with its identity.
type Member struct {
	ID    uuid.UUID
	Index int
	Agent agent.Agent
}

// Group is a contiguous run of members sharing a Kind.
type Group struct {
	Kind  agent.Kind
	Start int // index of the first member
	Count int
}

// Population is the ordered set of agents a simulation plays with.
// Members are grouped by kind in construction order.
type Population struct {
	Members []Member
	Groups  []Group
}

// Build creates a population of plain agents: all order-0, then order-1, then order-2.
// Agent i draws from its own PCG stream (seed, i).
func Build(cfg Config, rules engine.GameRules, seed uint64) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	p := &Population{}
	for _, o := range orders {
		if err := p.add(agent.Kind{Order: o, Role: agent.RolePlain}, cfg.Count(o), rules, seed); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// BuildSignaling creates a mixed population. For every order, signaling
// agents come first, then plain agents, then receiving agents.
func BuildSignaling(cfg SignalingConfig, rules engine.GameRules, seed uint64) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	p := &Population{}
	for _, o := range orders {
		for _, r := range roles {
			if err := p.add(agent.Kind{Order: o, Role: r}, cfg.Role(r).Count(o), rules, seed); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (p *Population) add(kind agent.Kind, n int, rules engine.GameRules, seed uint64) error {
	if n == 0 {
		return nil
	}
	p.Groups = append(p.Groups, Group{Kind: kind, Start: len(p.Members), Count: n})
	for i := 0; i < n; i++ {
		idx := len(p.Members)
		a, err := New(kind, rules, engine.NewRand(seed, uint64(idx)))
		if err != nil {
			return fmt.Errorf("building %s agent %d: %w", kind, idx, err)
		}
		p.Members = append(p.Members, Member{ID: uuid.New(), Index: idx, Agent: a})
	}
	return nil
}

// Len returns the number of members.
func (p *Population) Len() int { return len(p.Members) }

// Signalers returns the members able to signal, in population order.
func (p *Population) Signalers() []agent.Signaler {
	var out []agent.Signaler
	for _, m := range p.Members {
		if s, ok := m.Agent.(agent.Signaler); ok {
			out = append(out, s)
		}
	}
	return out
}

// Receivers returns the members consuming signals, in population order.
func (p *Population) Receivers() []agent.SignalReceiver {
	var out []agent.SignalReceiver
	for _, m := range p.Members {
		if r, ok := m.Agent.(agent.SignalReceiver); ok {
			out = append(out, r)
		}
	}
	return out
}

// New constructs a fresh agent of the given kind.
func New(kind agent.Kind, rules engine.GameRules, rng *rand.Rand) (agent.Agent, error) {
	switch kind {
	case agent.Kind{Order: agent.OrderZero, Role: agent.RolePlain}:
		return agent.NewZeroOrder(rules, rng)
	case agent.Kind{Order: agent.OrderFirst, Role: agent.RolePlain}:
		return agent.NewFirstOrder(rules, rng)
	case agent.Kind{Order: agent.OrderSecond, Role: agent.RolePlain}:
		return agent.NewSecondOrder(rules, rng)
	case agent.Kind{Order: agent.OrderZero, Role: agent.RoleSignaling}:
		return agent.NewZeroOrderSignaling(rules, rng)
	case agent.Kind{Order: agent.OrderFirst, Role: agent.RoleSignaling}:
		return agent.NewFirstOrderSignaling(rules, rng)
	case agent.Kind{Order: agent.OrderSecond, Role: agent.RoleSignaling}:
		return agent.NewSecondOrderSignaling(rules, rng)
	case agent.Kind{Order: agent.OrderZero, Role: agent.RoleReceiving}:
		return agent.NewZeroOrderReceiving(rules, rng)
	case agent.Kind{Order: agent.OrderFirst, Role: agent.RoleReceiving}:
		return agent.NewFirstOrderReceiving(rules, rng)
	case agent.Kind{Order: agent.OrderSecond, Role: agent.RoleReceiving}:
		return agent.NewSecondOrderReceiving(rules, rng)
	}
	return nil, fmt.Errorf("unknown agent kind %s", kind)
}
