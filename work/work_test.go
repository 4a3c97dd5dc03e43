package work

import (
	"testing"
	"time"
)

// immediate returns a worker that reports the given outcome right away.
func immediate(outcome State) WorkerFunc {
	return func(ctl *Control) {
		if outcome == StateCompleted {
			ctl.Completed()
		} else {
			ctl.Failed()
		}
	}
}

func TestWorkInitialState(t *testing.T) {
	w := New("w", immediate(StateCompleted))

	if got := w.State(); got != StateCreated {
		t.Errorf("new node state = %v, want %v", got, StateCreated)
	}
	if got := w.Policy(); got != PolicyAny {
		t.Errorf("new node policy = %v, want %v", got, PolicyAny)
	}
	if w.TotalParents() != 0 || w.RemainingParents() != 0 {
		t.Errorf("new node parents = %d/%d, want 0/0", w.RemainingParents(), w.TotalParents())
	}
	if w.Done() {
		t.Error("new node reports Done before running")
	}
}

func TestRootStartCompletes(t *testing.T) {
	root := NewRoot()
	root.Start()
	root.Wait()

	if got := root.State(); got != StateCompleted {
		t.Errorf("root state = %v, want %v", got, StateCompleted)
	}
}

func TestWaitRepeatedlyOnTerminalNode(t *testing.T) {
	w := New("w", immediate(StateCompleted))
	w.Start()
	w.Wait()

	// Subsequent waits must return promptly without re-consuming anything.
	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		go func() {
			w.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Wait call %d blocked on a terminal node", i)
		}
	}

	if !w.Done() {
		t.Error("Done() = false on a terminal node")
	}
}

func TestFailedNodeReachesTerminalState(t *testing.T) {
	w := New("w", immediate(StateFailed))
	w.Start()
	w.Wait()

	if got := w.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
}

func TestFailedParentNeverTriggersChildren(t *testing.T) {
	parent := New("parent", immediate(StateFailed))
	anyChild := New("any-child", immediate(StateCompleted))
	allChild := New("all-child", immediate(StateCompleted))

	WireAny([]*Work{parent}, []*Work{anyChild})
	WireAll([]*Work{parent}, []*Work{allChild})

	parent.Start()
	parent.Wait()

	// Give any erroneous activation a moment to surface.
	time.Sleep(50 * time.Millisecond)

	if got := anyChild.State(); got != StateCreated {
		t.Errorf("PolicyAny child of failed parent state = %v, want %v", got, StateCreated)
	}
	if got := allChild.State(); got != StateCreated {
		t.Errorf("PolicyAll child of failed parent state = %v, want %v", got, StateCreated)
	}
}

func TestTriggerWithFailedOutcomeDoesNotDecrement(t *testing.T) {
	child := New("child", immediate(StateCompleted))
	child.SetPolicy(PolicyAll)
	child.totalParents.Store(2)
	child.remaining.Store(2)

	child.Trigger(StateFailed)

	if got := child.RemainingParents(); got != 2 {
		t.Errorf("remaining after failed-parent trigger = %d, want 2", got)
	}
	if got := child.State(); got != StateCreated {
		t.Errorf("state after failed-parent trigger = %v, want %v", got, StateCreated)
	}
}

func TestAndChildWaitsForAllParents(t *testing.T) {
	// Scenario: root R → A and B, both AND-wired to C. C must reach Running
	// only after both A and B completed, never before.
	gateA := make(chan struct{})
	gateB := make(chan struct{})

	a := New("a", func(ctl *Control) {
		<-gateA
		ctl.Completed()
	})
	b := New("b", func(ctl *Control) {
		<-gateB
		ctl.Completed()
	})
	c := New("c", immediate(StateCompleted))
	root := NewRoot()

	WireAll([]*Work{root}, []*Work{a, b})
	WireAll([]*Work{a, b}, []*Work{c})

	root.Start()
	root.Wait()

	// A and B are running, blocked on their gates; C has one parent done.
	if got := c.State(); got != StateCreated {
		t.Fatalf("C state before any parent done = %v, want %v", got, StateCreated)
	}

	close(gateA)
	a.Wait()
	time.Sleep(20 * time.Millisecond)
	if got := c.State(); got != StateCreated {
		t.Fatalf("C state after one of two parents done = %v, want %v", got, StateCreated)
	}
	if got := c.RemainingParents(); got != 1 {
		t.Errorf("C remaining after one parent = %d, want 1", got)
	}

	close(gateB)
	c.Wait()
	if got := c.State(); got != StateCompleted {
		t.Errorf("C final state = %v, want %v", got, StateCompleted)
	}
}

func TestOrChildStartsOnFirstParent(t *testing.T) {
	gate := make(chan struct{})

	fast := New("fast", immediate(StateCompleted))
	slow := New("slow", func(ctl *Control) {
		<-gate
		ctl.Completed()
	})
	child := New("child", immediate(StateCompleted))
	root := NewRoot()

	WireAny([]*Work{root}, []*Work{fast, slow})
	WireAny([]*Work{fast, slow}, []*Work{child})

	root.Start()
	child.Wait()

	if got := child.State(); got != StateCompleted {
		t.Errorf("child state = %v, want %v", got, StateCompleted)
	}
	// slow is still blocked; the child did not wait for it.
	if got := slow.State(); got != StateRunning {
		t.Errorf("slow parent state = %v, want %v", got, StateRunning)
	}

	close(gate)
	slow.Wait()
}

func TestOrChildSurvivesSiblingFailure(t *testing.T) {
	// Scenario: root → X and Y, both OR-wired to Z. X fails, Y succeeds:
	// Z must still complete, triggered by Y, without waiting on X.
	yGate := make(chan struct{})

	x := New("x", immediate(StateFailed))
	y := New("y", func(ctl *Control) {
		<-yGate
		ctl.Completed()
	})
	z := New("z", immediate(StateCompleted))
	root := NewRoot()

	WireAny([]*Work{root}, []*Work{x, y})
	WireAny([]*Work{x, y}, []*Work{z})

	root.Start()
	x.Wait()

	// X failed; Z must not have been triggered by it.
	time.Sleep(20 * time.Millisecond)
	if got := z.State(); got != StateCreated {
		t.Fatalf("Z state after X failed = %v, want %v", got, StateCreated)
	}

	close(yGate)
	z.Wait()
	if got := z.State(); got != StateCompleted {
		t.Errorf("Z final state = %v, want %v", got, StateCompleted)
	}
}

func TestStateMonotonicOnceTerminal(t *testing.T) {
	w := New("w", immediate(StateCompleted))
	w.Start()
	w.Wait()

	// Late triggers after a terminal state must be no-ops.
	w.Trigger(StateCompleted)
	w.Trigger(StateFailed)

	if got := w.State(); got != StateCompleted {
		t.Errorf("state after late triggers = %v, want %v", got, StateCompleted)
	}
}

func TestRunningEnteredAtMostOncePerCycle(t *testing.T) {
	starts := 0
	gate := make(chan struct{})
	w := New("w", func(ctl *Control) {
		starts++
		<-gate
		ctl.Completed()
	})
	w.SetPolicy(PolicyAny)

	// Several qualifying triggers; only the first may start the callback.
	w.Start()
	w.Start()
	w.Start()

	close(gate)
	w.Wait()

	if starts != 1 {
		t.Errorf("worker started %d times, want 1", starts)
	}
}

func TestResetRearmsNode(t *testing.T) {
	runs := 0
	w := New("w", func(ctl *Control) {
		runs++
		ctl.Completed()
	})

	w.Start()
	w.Wait()
	if w.State() != StateCompleted {
		t.Fatalf("first run state = %v, want %v", w.State(), StateCompleted)
	}

	w.Reset(false)
	if got := w.State(); got != StateCreated {
		t.Fatalf("state after reset = %v, want %v", got, StateCreated)
	}
	if w.Done() {
		t.Fatal("Done() = true after reset")
	}

	w.Start()
	w.Wait()
	if runs != 2 {
		t.Errorf("worker ran %d times, want 2", runs)
	}
}

func TestDeepResetRestoresWholeGraph(t *testing.T) {
	// Build root → {A, B} → C (AND), run to completion, deep-reset, and
	// verify the second run produces identical observable outcomes.
	build := func() (*Work, *Work, *Work, *Work) {
		root := NewRoot()
		a := New("a", immediate(StateCompleted))
		b := New("b", immediate(StateCompleted))
		c := New("c", immediate(StateCompleted))
		WireAll([]*Work{root}, []*Work{a, b})
		WireAll([]*Work{a, b}, []*Work{c})
		return root, a, b, c
	}

	root, a, b, c := build()

	for cycle := 0; cycle < 3; cycle++ {
		root.Start()
		c.Wait()

		for _, w := range []*Work{root, a, b, c} {
			if got := w.State(); got != StateCompleted {
				t.Fatalf("cycle %d: node %s state = %v, want %v", cycle, w.Name(), got, StateCompleted)
			}
		}

		root.Reset(true)
		for _, w := range []*Work{root, a, b, c} {
			if got := w.State(); got != StateCreated {
				t.Fatalf("cycle %d: node %s state after deep reset = %v, want %v", cycle, w.Name(), got, StateCreated)
			}
			if w.RemainingParents() != w.TotalParents() {
				t.Fatalf("cycle %d: node %s remaining = %d, want total %d",
					cycle, w.Name(), w.RemainingParents(), w.TotalParents())
			}
		}
	}
}

func TestResetWhileRunningBlocksUntilDone(t *testing.T) {
	gate := make(chan struct{})
	w := New("w", func(ctl *Control) {
		<-gate
		ctl.Completed()
	})

	w.Start()

	resetDone := make(chan struct{})
	go func() {
		w.Reset(false)
		close(resetDone)
	}()

	select {
	case <-resetDone:
		t.Fatal("Reset returned while the worker was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	<-resetDone

	if got := w.State(); got != StateCreated {
		t.Errorf("state after reset = %v, want %v", got, StateCreated)
	}
}

func TestRegisterChildCountsParentEdges(t *testing.T) {
	p1 := New("p1", immediate(StateCompleted))
	p2 := New("p2", immediate(StateCompleted))
	child := New("child", immediate(StateCompleted))

	p1.RegisterChild(child)
	p2.RegisterChild(child)

	if got := child.TotalParents(); got != 2 {
		t.Errorf("total parents = %d, want 2", got)
	}
	if got := child.RemainingParents(); got != 2 {
		t.Errorf("remaining parents = %d, want 2", got)
	}
}

func TestLastPolicyWireWins(t *testing.T) {
	// Policy lives on the child, not the edge: wiring the same child first
	// with WireAll and then with WireAny leaves it gated on any parent.
	p1 := New("p1", immediate(StateCompleted))
	p2 := New("p2", immediate(StateCompleted))
	child := New("child", immediate(StateCompleted))

	WireAll([]*Work{p1}, []*Work{child})
	WireAny([]*Work{p2}, []*Work{child})

	if got := child.Policy(); got != PolicyAny {
		t.Errorf("policy after WireAll then WireAny = %v, want %v", got, PolicyAny)
	}

	p1.Start()
	child.Wait()
	if got := child.State(); got != StateCompleted {
		t.Errorf("child state = %v, want %v", got, StateCompleted)
	}
}

func TestDiamondSharedChildRunsOnce(t *testing.T) {
	// Diamond: root → {left, right} → join (AND). The join must run
	// exactly once even though it is reachable through two paths.
	runs := 0
	root := NewRoot()
	left := New("left", immediate(StateCompleted))
	right := New("right", immediate(StateCompleted))
	join := New("join", func(ctl *Control) {
		runs++
		ctl.Completed()
	})

	WireAny([]*Work{root}, []*Work{left, right})
	WireAll([]*Work{left, right}, []*Work{join})

	root.Start()
	join.Wait()

	if runs != 1 {
		t.Errorf("join ran %d times, want 1", runs)
	}
}
