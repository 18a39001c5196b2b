package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/service/internal/simulation"
	"github.com/jason-s-yu/tomgame/service/internal/stats"
)

// Report is the aggregated outcome of one simulation variant.
type Report struct {
	Simulation string            `json:"simulation"`
	Rounds     int               `json:"rounds"`
	Replicates int               `json:"replicates"`
	Groups     []stats.Group     `json:"groups"` // Per-round mean and std of each group's scores.
	Snapshot   *simulation.State `json:"snapshot,omitempty"`
}

// writeTable prints one aligned table per report, followed by any
// snapshots as indented JSON.
func writeTable(w io.Writer, rules engine.GameRules, reports []Report) error {
	fmt.Fprintf(w, "K=%d  epsilon=%g  learning=%g  signal=%g  decay=%s  feedback=%s\n",
		rules.NumChoices, rules.Epsilon, rules.LearningSpeed, rules.SignalLearningSpeed, rules.Decay, rules.Feedback)

	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(w, "-----------------")
		}
		fmt.Fprintf(w, "%s simulation: %d rounds x %d replicates (scores per round)\n", rep.Simulation, rep.Rounds, rep.Replicates)
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "GROUP\tAGENTS\tMEAN\tSTD")
		for _, g := range rep.Groups {
			fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\n", g.Label, g.Count, g.Mean, g.Std)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, rep := range reports {
		if rep.Snapshot == nil {
			continue
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep.Snapshot); err != nil {
			return err
		}
	}
	return nil
}
