package agent

import (
	"math"
	"testing"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// markerColumn is the column that dominates row s in markedMatrix.
func markerColumn(s, k int) int { return (3*s + 1) % k }

// markedMatrix returns a k×k matrix whose row s peaks at markerColumn(s, k).
// Row 0 carries slightly more mass than the others so it wins a greedy Signal.
func markedMatrix(k int) BeliefMatrix {
	m := make(BeliefMatrix, k)
	for s := range m {
		m[s] = peaked(k, markerColumn(s, k), 0.6)
	}
	for c := range m[0] {
		m[0][c] *= 1.01
	}
	return m
}

// TestZeroOrderSignalingDecideUsesLastSignal: Decide only ever reads the row
// returned by the most recent Signal.
func TestZeroOrderSignalingDecideUsesLastSignal(t *testing.T) {
	rules := greedyRules()
	k := int(rules.NumChoices)
	m := markedMatrix(k)
	a, err := NewZeroOrderSignalingWith(rules, newTestRand(1), m)
	if err != nil {
		t.Fatal(err)
	}

	for _, heavy := range []int{0, 5, 22, 9, 9, 14} {
		// Make row heavy the one with the greatest mass without changing its argmax.
		for s := range m {
			m[s] = peaked(k, markerColumn(s, k), 0.6)
		}
		for c := range m[heavy] {
			m[heavy][c] *= 2
		}

		sig := a.Signal()
		if int(sig) != heavy {
			t.Fatalf("expected signal %d, got %d", heavy, sig)
		}
		if a.ChosenSignal() != sig {
			t.Errorf("ChosenSignal %d does not match returned signal %d", a.ChosenSignal(), sig)
		}
		if got := a.Decide(); int(got) != markerColumn(heavy, k) {
			t.Errorf("signal %d: expected action %d from its row, got %d", heavy, markerColumn(heavy, k), got)
		}
		if a.ChosenAction() != engine.Action(markerColumn(heavy, k)) {
			t.Errorf("ChosenAction not recorded")
		}
	}
}

// TestZeroOrderSignalingExploredSignalDrivesRow: a random signal still selects the row.
func TestZeroOrderSignalingExploredSignalDrivesRow(t *testing.T) {
	rules := greedyRules()
	k := int(rules.NumChoices)
	a, err := NewZeroOrderSignalingWith(rules, newTestRand(2), markedMatrix(k))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		// Exploring signal, greedy decision.
		a.rules.Epsilon = 1
		sig := a.Signal()
		a.rules.Epsilon = 0
		if got := a.Decide(); int(got) != markerColumn(int(sig), k) {
			t.Fatalf("signal %d: expected %d, got %d", sig, markerColumn(int(sig), k), got)
		}
	}
}

// TestZeroOrderSignalingUpdateReinforcesRow: a decision one step ahead of the
// realized action is reinforced inside the chosen row only.
func TestZeroOrderSignalingUpdateReinforcesRow(t *testing.T) {
	rules := greedyRules()
	k := int(rules.NumChoices)
	m := markedMatrix(k)
	a, err := NewZeroOrderSignalingWith(rules, newTestRand(3), m)
	if err != nil {
		t.Fatal(err)
	}
	sig := a.Signal() // row 0
	decision := a.Decide()
	before := a.Beliefs()

	a.Update(decision.Prev(rules.NumChoices))
	after := a.Beliefs()

	row := int(sig)
	if after[row][decision] <= before[row][decision] {
		t.Errorf("expected cell (%d,%d) to grow: %f -> %f", row, decision, before[row][decision], after[row][decision])
	}
	if math.Abs(after[row].Sum()-1) > tolerance {
		t.Errorf("expected row %d to keep unit mass, got %f", row, after[row].Sum())
	}
	for r := range after {
		if r == row {
			continue
		}
		for c := range after[r] {
			if after[r][c] != before[r][c] {
				t.Fatalf("row %d changed although signal was %d", r, sig)
			}
		}
	}
}

// TestZeroOrderSignalingUpdateNoMatch: any other realized action leaves beliefs untouched.
func TestZeroOrderSignalingUpdateNoMatch(t *testing.T) {
	rules := greedyRules()
	k := int(rules.NumChoices)
	a, err := NewZeroOrderSignalingWith(rules, newTestRand(4), markedMatrix(k))
	if err != nil {
		t.Fatal(err)
	}
	a.Signal()
	decision := a.Decide()
	before := a.Beliefs()
	a.Update(decision) // decision != decision+1
	after := a.Beliefs()
	for r := range after {
		for c := range after[r] {
			if after[r][c] != before[r][c] {
				t.Fatalf("cell (%d,%d) changed without a match", r, c)
			}
		}
	}
}

// newFirstSignaling builds a greedy first-order signaling agent over marked matrices.
func newFirstSignaling(t *testing.T) *FirstOrderSignaling {
	t.Helper()
	rules := greedyRules()
	k := int(rules.NumChoices)
	zero, err := NewZeroOrderSignalingWith(rules, newTestRand(1), markedMatrix(k))
	if err != nil {
		t.Fatal(err)
	}
	own := make(BeliefMatrix, k)
	for s := range own {
		own[s] = peaked(k, (s+7)%k, 0.5)
	}
	a, err := NewFirstOrderSignalingWith(rules, newTestRand(2), own, zero)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// TestFirstOrderSignalingSignalDelegates: the nested model's signal is used with no offset.
func TestFirstOrderSignalingSignalDelegates(t *testing.T) {
	a := newFirstSignaling(t)
	sig := a.Signal()
	if sig != a.zero.ChosenSignal() {
		t.Errorf("expected nested signal %d, got %d", a.zero.ChosenSignal(), sig)
	}
	if a.ChosenSignal() != sig {
		t.Errorf("ChosenSignal not recorded")
	}
}

// TestFirstOrderSignalingDecideOwnRow: decisions read the agent's own matrix.
func TestFirstOrderSignalingDecideOwnRow(t *testing.T) {
	a := newFirstSignaling(t)
	sig := a.Signal()
	k := int(a.rules.NumChoices)
	if got := a.Decide(); int(got) != (int(sig)+7)%k {
		t.Errorf("expected %d, got %d", (int(sig)+7)%k, got)
	}
}

// TestFirstOrderSignalingUpdatePull: on a match, the chosen cell moves toward 1
// and every other cell decays by (1 - speed).
func TestFirstOrderSignalingUpdatePull(t *testing.T) {
	a := newFirstSignaling(t)
	k := a.rules.NumChoices
	sig := a.Signal()
	decision := a.Decide()
	before := a.Beliefs()

	a.Update(decision.Prev(k))
	after := a.Beliefs()

	speed := a.rules.LearningSpeed
	for r := range after {
		for c := range after[r] {
			var want float64
			if r == int(sig) && c == int(decision) {
				want = before[r][c] + speed*(1-before[r][c])
			} else {
				want = before[r][c] * (1 - speed)
			}
			if math.Abs(after[r][c]-want) > tolerance {
				t.Fatalf("cell (%d,%d): expected %f, got %f", r, c, want, after[r][c])
			}
		}
	}
}

// TestFirstOrderSignalingForwardsUpdate: the nested model receives the realized action.
func TestFirstOrderSignalingForwardsUpdate(t *testing.T) {
	a := newFirstSignaling(t)
	k := a.rules.NumChoices
	a.Signal()
	nestedDecision := a.zero.Decide()
	row := int(a.zero.ChosenSignal())
	before := a.zero.Beliefs()

	a.Update(nestedDecision.Prev(k))

	after := a.zero.Beliefs()
	if after[row][nestedDecision] <= before[row][nestedDecision] {
		t.Errorf("expected nested model to reinforce (%d,%d)", row, nestedDecision)
	}
}

// newSecondSignaling builds a greedy second-order signaling agent.
func newSecondSignaling(t *testing.T, belief OrderBelief) *SecondOrderSignaling {
	t.Helper()
	rules := greedyRules()
	k := int(rules.NumChoices)
	zero, err := NewZeroOrderSignalingWith(rules, newTestRand(5), markedMatrix(k))
	if err != nil {
		t.Fatal(err)
	}
	first := newFirstSignaling(t)
	// Make the first-order model signal something different from the zero-order model.
	first.zero.beliefs[4][0] += 1
	a, err := NewSecondOrderSignalingWith(rules, newTestRand(6), zero, first, belief)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// TestSecondOrderSignalingSignalFollowsBranch: no offset on signals.
func TestSecondOrderSignalingSignalFollowsBranch(t *testing.T) {
	zeroBranch := newSecondSignaling(t, OrderBelief{0.7, 0.3})
	if got := zeroBranch.Signal(); got != 0 {
		t.Errorf("expected zero-order model's signal 0, got %d", got)
	}
	firstBranch := newSecondSignaling(t, OrderBelief{0.3, 0.7})
	if got := firstBranch.Signal(); got != 4 {
		t.Errorf("expected first-order model's signal 4, got %d", got)
	}
	if firstBranch.ChosenSignal() != 4 {
		t.Errorf("ChosenSignal not recorded")
	}
}

// TestSecondOrderSignalingDecideOffset: the chosen branch's decision plus one.
func TestSecondOrderSignalingDecideOffset(t *testing.T) {
	k := engine.DefaultNumChoices
	a := newSecondSignaling(t, OrderBelief{0.7, 0.3})
	a.Signal()
	want := engine.Action(markerColumn(0, int(k))).Next(k)
	if got := a.Decide(); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}

	b := newSecondSignaling(t, OrderBelief{0.3, 0.7})
	b.Signal()
	want = engine.Action((4 + 7) % int(k)).Next(k)
	if got := b.Decide(); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

// TestSecondOrderSignalingOrderBelief credits the matching branch.
func TestSecondOrderSignalingOrderBelief(t *testing.T) {
	k := engine.DefaultNumChoices
	a := newSecondSignaling(t, OrderBelief{0.3, 0.7})
	a.Signal()
	firstCF := engine.Action((4 + 7) % int(k)).Next(k)

	prev := a.OrderBelief()
	a.Update(firstCF)
	cur := a.OrderBelief()
	if cur[BranchFirst] <= prev[BranchFirst] || cur[BranchZero] >= prev[BranchZero] {
		t.Errorf("expected branch 1 credited: %v -> %v", prev, cur)
	}
}

// TestSignalingKinds reports order and role.
func TestSignalingKinds(t *testing.T) {
	rules := engine.DefaultGameRules()
	rng := newTestRand(1)
	z, _ := NewZeroOrderSignaling(rules, rng)
	f, _ := NewFirstOrderSignaling(rules, rng)
	s, _ := NewSecondOrderSignaling(rules, rng)
	for i, a := range []Signaler{z, f, s} {
		if a.Kind() != (Kind{Order(i), RoleSignaling}) {
			t.Errorf("agent %d: unexpected kind %s", i, a.Kind())
		}
		for round := 0; round < 100; round++ {
			sig := a.Signal()
			d := a.Decide()
			if !sig.Valid(rules.NumChoices) || !d.Valid(rules.NumChoices) {
				t.Fatalf("%s: out of range signal %d / action %d", a.Kind(), sig, d)
			}
			a.Update(d)
		}
	}
}
