package session

// Intent is a user action the presentation layer hands to a Session.
type Intent interface {
	Apply(s *Session)
}

// Apply runs intents in order.
func (s *Session) Apply(intents ...Intent) {
	for _, in := range intents {
		if in != nil {
			in.Apply(s)
		}
	}
}

// ToggleTimer starts or stops the speech timer.
type ToggleTimer struct{}

func (ToggleTimer) Apply(s *Session) { s.ToggleTimer() }

// FinalizeSpeech records the timed interval as a speech.
type FinalizeSpeech struct{}

func (FinalizeSpeech) Apply(s *Session) { s.Finalize() }

// AddSpeaker adds a roster entry.
type AddSpeaker struct {
	Name     string
	Category string
}

func (a AddSpeaker) Apply(s *Session) { s.AddSpeaker(a.Name, a.Category) }

// DeleteSpeaker removes a roster entry.
type DeleteSpeaker struct{ Index int }

func (d DeleteSpeaker) Apply(s *Session) { s.DeleteSpeaker(d.Index) }

// Enqueue signals that a speaker wants to speak.
type Enqueue struct{ Index int }

func (e Enqueue) Apply(s *Session) { s.Enqueue(e.Index) }

// Dequeue drops the queue front without timing anything.
type Dequeue struct{}

func (Dequeue) Apply(s *Session) { s.roster.Dequeue() }

// RemoveFromQueue drops one queued turn.
type RemoveFromQueue struct{ Position int }

func (r RemoveFromQueue) Apply(s *Session) { s.roster.RemoveFromQueue(r.Position) }

// DeleteSpeech schedules a speech for removal.
type DeleteSpeech struct{ Index int }

func (d DeleteSpeech) Apply(s *Session) { s.MarkSpeechDeleted(d.Index) }

// SetSpeechCategory labels a speech.
type SetSpeechCategory struct {
	Index    int
	Category string
}

func (c SetSpeechCategory) Apply(s *Session) { s.SetSpeechCategory(c.Index, c.Category) }

// CycleSpeechCategory moves a speech to the next category.
type CycleSpeechCategory struct{ Index int }

func (c CycleSpeechCategory) Apply(s *Session) { s.CycleSpeechCategory(c.Index) }

// AddCategory appends a category label.
type AddCategory struct{ Category string }

func (c AddCategory) Apply(s *Session) { s.AddCategory(c.Category) }

// RemoveCategory drops a category label.
type RemoveCategory struct{ Index int }

func (c RemoveCategory) Apply(s *Session) { s.RemoveCategory(c.Index) }

// ClearSpeeches resets the timer and drops all speeches. Only apply after
// the user confirmed.
type ClearSpeeches struct{}

func (ClearSpeeches) Apply(s *Session) { s.ClearSpeeches() }
