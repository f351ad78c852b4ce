package session

import (
	"slices"
	"testing"
)

func newTestRoster(names ...string) *Roster {
	r := &Roster{}
	for _, n := range names {
		r.Add(n, "")
	}
	return r
}

func TestAddAllowsDuplicates(t *testing.T) {
	r := newTestRoster("Alice", "Alice")
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
}

func TestQueueLookups(t *testing.T) {
	r := newTestRoster("A", "B", "C")
	for _, i := range []int{2, 0, 1} {
		if !r.Enqueue(i) {
			t.Fatalf("Enqueue(%d) failed", i)
		}
	}

	if got := r.CurrentSpeaker().Name; got != "C" {
		t.Errorf("CurrentSpeaker() = %q, want %q", got, "C")
	}
	if got := r.PeekNext().Name; got != "A" {
		t.Errorf("PeekNext() = %q, want %q", got, "A")
	}
}

func TestLookupsOnShortQueue(t *testing.T) {
	r := newTestRoster("A")
	if !r.CurrentSpeaker().IsZero() {
		t.Error("empty queue should resolve to placeholder")
	}
	r.Enqueue(0)
	if !r.PeekNext().IsZero() {
		t.Error("single-entry queue should have no next speaker")
	}
	if r.Speaker(5) != (Speaker{}) {
		t.Error("out-of-range speaker should be placeholder")
	}
}

func TestEnqueueRejectsOutOfRange(t *testing.T) {
	r := newTestRoster("A")
	if r.Enqueue(1) {
		t.Error("Enqueue(1) should fail on a one-speaker roster")
	}
	if r.Enqueue(-1) {
		t.Error("Enqueue(-1) should fail")
	}
	if len(r.Queue()) != 0 {
		t.Errorf("queue = %v, want empty", r.Queue())
	}
}

func TestEnqueueSameSpeakerTwice(t *testing.T) {
	r := newTestRoster("A", "B")
	r.Enqueue(1)
	r.Enqueue(1)
	if got := r.Queue(); !slices.Equal(got, []int{1, 1}) {
		t.Errorf("queue = %v, want [1 1]", got)
	}
}

func TestDequeue(t *testing.T) {
	r := newTestRoster("A", "B")
	r.Enqueue(1)
	r.Enqueue(0)

	sp, idx := r.Dequeue()
	if sp.Name != "B" || idx != 1 {
		t.Errorf("Dequeue() = %q,%d, want B,1", sp.Name, idx)
	}
	sp, idx = r.Dequeue()
	if sp.Name != "A" || idx != 0 {
		t.Errorf("Dequeue() = %q,%d, want A,0", sp.Name, idx)
	}
	sp, idx = r.Dequeue()
	if !sp.IsZero() || idx != NoSpeaker {
		t.Errorf("Dequeue() on empty = %v,%d, want placeholder,-1", sp, idx)
	}
}

func TestDeleteReindexesQueue(t *testing.T) {
	r := newTestRoster("A", "B", "C", "D")
	for _, i := range []int{3, 1, 0, 1, 2} {
		r.Enqueue(i)
	}

	if !r.Delete(1) {
		t.Fatal("Delete(1) failed")
	}

	if got := r.Queue(); !slices.Equal(got, []int{2, 0, 1}) {
		t.Errorf("queue = %v, want [2 0 1]", got)
	}
	names := []string{}
	for _, sp := range r.Speakers() {
		names = append(names, sp.Name)
	}
	if !slices.Equal(names, []string{"A", "C", "D"}) {
		t.Errorf("roster = %v, want [A C D]", names)
	}
	if got := r.CurrentSpeaker().Name; got != "D" {
		t.Errorf("CurrentSpeaker() = %q, want D", got)
	}
}

func TestDeleteNeverLeavesStaleIndex(t *testing.T) {
	r := newTestRoster("A", "B", "C")
	r.Enqueue(2)
	r.Enqueue(2)
	r.Delete(2)

	for _, q := range r.Queue() {
		if q >= r.Len() {
			t.Errorf("queue holds stale index %d", q)
		}
	}
	if len(r.Queue()) != 0 {
		t.Errorf("queue = %v, want empty", r.Queue())
	}
}

func TestDeleteOutOfRange(t *testing.T) {
	r := newTestRoster("A")
	r.Enqueue(0)
	if r.Delete(3) {
		t.Error("Delete(3) should fail")
	}
	if r.Len() != 1 || len(r.Queue()) != 1 {
		t.Error("failed delete should not change state")
	}
}

func TestRemoveFromQueue(t *testing.T) {
	r := newTestRoster("A", "B")
	r.Enqueue(0)
	r.Enqueue(1)
	r.Enqueue(0)

	if !r.RemoveFromQueue(1) {
		t.Fatal("RemoveFromQueue(1) failed")
	}
	if got := r.Queue(); !slices.Equal(got, []int{0, 0}) {
		t.Errorf("queue = %v, want [0 0]", got)
	}
	if r.RemoveFromQueue(5) {
		t.Error("RemoveFromQueue(5) should fail")
	}
}
