// internal/simulation/replicate.go
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/jason-s-yu/tomgame/service/internal/stats"
	"github.com/sirupsen/logrus"
)

// ErrInvalidReplicates is returned when fewer than one replicate is requested.
var ErrInvalidReplicates = errors.New("replicates must be positive")

// Factory builds a fresh simulation for one replicate.
type Factory func(seed uint64, log *logrus.Entry) (*Simulation, error)

// Results summarizes the accumulated scores of every population group.
func (s *Simulation) Results() []stats.Group {
	out := make([]stats.Group, 0, len(s.Pop.Groups))
	for _, g := range s.Pop.Groups {
		out = append(out, stats.Group{
			Label:   g.Kind.String(),
			Count:   g.Count,
			Summary: stats.SummarizeInts(s.scores[g.Start : g.Start+g.Count]),
		})
	}
	return out
}

// ReplicateOptions controls a batch of independent runs.
type ReplicateOptions struct {
	Replicates int
	Rounds     int
	Seed       uint64 // Replicate i is built with Seed+i.
	Workers    int    // Concurrent replicates; <= 0 means GOMAXPROCS.
}

// Replicate runs independent simulations built by f and aggregates their
// per-group results into per-round figures. Replicates share no state, so
// they run concurrently; results are combined in replicate order.
func Replicate(ctx context.Context, f Factory, opts ReplicateOptions, log *logrus.Entry) ([]stats.Group, error) {
	if opts.Replicates <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidReplicates, opts.Replicates)
	}
	if opts.Rounds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRounds, opts.Rounds)
	}
	if log == nil {
		log = discardEntry()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]stats.Group, opts.Replicates)
	errs := make([]error, opts.Replicates)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < opts.Replicates; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entry := log.WithField("replicate", i)
			sim, err := f(opts.Seed+uint64(i), entry)
			if err != nil {
				errs[i] = fmt.Errorf("replicate %d: %w", i, err)
				return
			}
			if err := sim.Run(ctx, opts.Rounds); err != nil {
				errs[i] = fmt.Errorf("replicate %d: %w", i, err)
				return
			}
			results[i] = sim.Results()
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	agg, err := stats.Aggregate(results, opts.Rounds)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"replicates": opts.Replicates, "rounds": opts.Rounds}).Info("Replicates aggregated.")
	return agg, nil
}

func discardEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
