package engine

// Scores returns the round score of every agent given the joint action vector.
// An agent playing a scores one point for every entry of actions equal to
// a.Prev(k); the scan covers the whole vector, the agent itself included.
func Scores(actions []Action, k uint16) []int {
	counts := make([]int, k)
	for _, a := range actions {
		if a.Valid(k) {
			counts[a]++
		}
	}
	scores := make([]int, len(actions))
	for i, a := range actions {
		scores[i] = counts[a.Prev(k)]
	}
	return scores
}

// ModalAction returns the most frequent action of the round.
// Ties resolve to the lowest action value. An empty round yields 0.
func ModalAction(actions []Action, k uint16) Action {
	counts := make([]int, k)
	for _, a := range actions {
		if a.Valid(k) {
			counts[a]++
		}
	}
	best := 0
	bestCount := 0
	for i, c := range counts {
		if c > bestCount {
			best = i
			bestCount = c
		}
	}
	return Action(best)
}

// FeedbackFor returns the realized action each agent should be updated with.
func (r GameRules) FeedbackFor(actions []Action) []Action {
	realized := make([]Action, len(actions))
	switch r.Feedback {
	case FeedbackPopulation:
		modal := ModalAction(actions, r.NumChoices)
		for i := range realized {
			realized[i] = modal
		}
	default:
		copy(realized, actions)
	}
	return realized
}
