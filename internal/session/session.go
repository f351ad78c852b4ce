// Package session holds the state of one meeting: the speech timer, the
// finalized speeches, the speaker roster with its turn queue and the
// category labels.
//
// A Session is owned by a single update loop and is not safe for concurrent
// use. Work handed to other goroutines should receive encoded snapshots.
package session

import (
	"slices"
	"time"

	"github.com/akousteon/akousteon/internal/timer"
)

// NoSpeaker is the active-speaker index meaning nobody holds the floor.
const NoSpeaker = -1

// Speech is a finalized, timed turn.
type Speech struct {
	Duration time.Duration
	Category string
}

// CategoryTotal is the summed speaking time of one category.
type CategoryTotal struct {
	Category string
	Total    time.Duration
}

// Session is the complete state of one meeting.
type Session struct {
	clock      timer.Clock
	timespan   *timer.Timespan
	speeches   []Speech
	roster     Roster
	categories []string
	active     int
	pending    []int
}

// New returns an empty Session timed by clock. A nil clock means the system
// clock.
func New(clock timer.Clock) *Session {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	return &Session{
		clock:    clock,
		timespan: timer.NewTimespan(clock),
		active:   NoSpeaker,
	}
}

// Timespan exposes the running speech timer.
func (s *Session) Timespan() *timer.Timespan { return s.timespan }

// Roster returns a snapshot of the speaker roster and turn queue. Changes
// to the snapshot do not reach the session.
func (s *Session) Roster() *Roster {
	r := s.roster.clone()
	return &r
}

// Active returns the speaker holding the floor and its roster index.
func (s *Session) Active() (Speaker, int) {
	if s.active == NoSpeaker {
		return Speaker{}, NoSpeaker
	}
	return s.roster.Speaker(s.active), s.active
}

// ToggleTimer starts or stops the speech timer. Starting with nobody on the
// floor hands it to the queue front.
func (s *Session) ToggleTimer() {
	if !s.timespan.IsRunning() && s.active == NoSpeaker {
		_, s.active = s.roster.Dequeue()
	}
	s.timespan.Toggle()
}

// Finalize turns the timed interval into a Speech, resets the timer and
// passes the floor to the next queued speaker. It returns false and changes
// nothing when less than one second has been timed.
func (s *Session) Finalize() bool {
	s.ApplyPendingDeletions()
	if s.timespan.ElapsedNow() < time.Second {
		return false
	}
	s.timespan.Stop()
	s.speeches = append(s.speeches, Speech{Duration: s.timespan.Elapsed()})
	s.timespan.Reset()
	_, s.active = s.roster.Dequeue()
	return true
}

// AddSpeaker appends a speaker to the roster.
func (s *Session) AddSpeaker(name, category string) int {
	return s.roster.Add(name, category)
}

// Enqueue appends a roster index to the turn queue.
func (s *Session) Enqueue(index int) bool {
	return s.roster.Enqueue(index)
}

// DeleteSpeaker removes a roster entry and re-indexes the queue and the
// active speaker.
func (s *Session) DeleteSpeaker(index int) bool {
	if !s.roster.Delete(index) {
		return false
	}
	switch {
	case s.active == index:
		s.active = NoSpeaker
	case s.active > index:
		s.active--
	}
	return true
}

// Speeches returns the finalized speeches, oldest first.
func (s *Session) Speeches() []Speech {
	s.ApplyPendingDeletions()
	return slices.Clone(s.speeches)
}

// MarkSpeechDeleted schedules the speech at index for removal. The removal
// happens on the next speech-list operation.
func (s *Session) MarkSpeechDeleted(index int) {
	s.pending = append(s.pending, index)
}

// Marked returns the speeches without applying scheduled removals, and the
// indices scheduled for removal.
func (s *Session) Marked() ([]Speech, []int) {
	return slices.Clone(s.speeches), slices.Clone(s.pending)
}

// PendingDeletions returns the number of scheduled removals.
func (s *Session) PendingDeletions() int { return len(s.pending) }

// ApplyPendingDeletions removes scheduled speeches, highest index first.
// Duplicate and out-of-range indices are ignored.
func (s *Session) ApplyPendingDeletions() {
	if len(s.pending) == 0 {
		return
	}
	slices.Sort(s.pending)
	pending := slices.Compact(s.pending)
	for i := len(pending) - 1; i >= 0; i-- {
		idx := pending[i]
		if idx < 0 || idx >= len(s.speeches) {
			continue
		}
		s.speeches = slices.Delete(s.speeches, idx, idx+1)
	}
	s.pending = s.pending[:0]
}

// SetSpeechCategory assigns category to the speech at index.
func (s *Session) SetSpeechCategory(index int, category string) bool {
	s.ApplyPendingDeletions()
	if index < 0 || index >= len(s.speeches) {
		return false
	}
	s.speeches[index].Category = category
	return true
}

// CycleSpeechCategory moves the speech at index to the next category in the
// list, wrapping through the uncategorized state.
func (s *Session) CycleSpeechCategory(index int) bool {
	s.ApplyPendingDeletions()
	if index < 0 || index >= len(s.speeches) || len(s.categories) == 0 {
		return false
	}
	next := 0
	if cur := slices.Index(s.categories, s.speeches[index].Category); cur >= 0 {
		next = cur + 1
	}
	if next >= len(s.categories) {
		s.speeches[index].Category = ""
	} else {
		s.speeches[index].Category = s.categories[next]
	}
	return true
}

// ClearSpeeches resets the timer and drops every speech. The roster, queue
// and categories are kept.
func (s *Session) ClearSpeeches() {
	s.timespan.Reset()
	s.speeches = nil
	s.pending = nil
}

// Categories returns the category labels in display order.
func (s *Session) Categories() []string { return slices.Clone(s.categories) }

// SetCategories replaces the category list.
func (s *Session) SetCategories(categories []string) {
	s.categories = slices.Clone(categories)
}

// AddCategory appends a label. Empty and already present labels are ignored.
func (s *Session) AddCategory(category string) bool {
	if category == "" || slices.Contains(s.categories, category) {
		return false
	}
	s.categories = append(s.categories, category)
	return true
}

// RemoveCategory drops the label at index. Speeches keep their label text.
func (s *Session) RemoveCategory(index int) bool {
	if index < 0 || index >= len(s.categories) {
		return false
	}
	s.categories = slices.Delete(s.categories, index, index+1)
	return true
}

// CategoryTotals sums speech durations per category, in category order.
// Matching is exact and case-sensitive.
func (s *Session) CategoryTotals() []CategoryTotal {
	s.ApplyPendingDeletions()
	return SumByCategory(s.categories, s.speeches)
}

// TotalDuration sums every speech, categorized or not.
func (s *Session) TotalDuration() time.Duration {
	s.ApplyPendingDeletions()
	return SumDurations(s.speeches)
}

// SumByCategory totals speeches per label in categories. Speeches whose label
// is not listed are not counted.
func SumByCategory(categories []string, speeches []Speech) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(categories))
	for _, c := range categories {
		var sum time.Duration
		for _, sp := range speeches {
			if sp.Category == c {
				sum += sp.Duration
			}
		}
		totals = append(totals, CategoryTotal{Category: c, Total: sum})
	}
	return totals
}

// SumDurations adds up every speech.
func SumDurations(speeches []Speech) time.Duration {
	var sum time.Duration
	for _, sp := range speeches {
		sum += sp.Duration
	}
	return sum
}
