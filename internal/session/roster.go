package session

// Speaker is a known participant. Speakers are addressed by their position
// in the Roster.
type Speaker struct {
	Name     string
	Category string
}

// IsZero reports whether s is the empty placeholder.
func (s Speaker) IsZero() bool { return s.Name == "" && s.Category == "" }

// Roster is the ordered list of speakers together with the turn queue.
// Queue entries are roster indices; the two are kept index-consistent.
type Roster struct {
	speakers []Speaker
	queue    []int
}

// Add appends a speaker and returns its index. Duplicates are allowed.
func (r *Roster) Add(name, category string) int {
	r.speakers = append(r.speakers, Speaker{Name: name, Category: category})
	return len(r.speakers) - 1
}

// Delete removes the speaker at index. Queue entries pointing at it are
// dropped and entries above it shift down by one. Returns false when index
// is out of range.
func (r *Roster) Delete(index int) bool {
	if !r.valid(index) {
		return false
	}
	r.speakers = append(r.speakers[:index], r.speakers[index+1:]...)

	kept := r.queue[:0]
	for _, q := range r.queue {
		switch {
		case q == index:
			continue
		case q > index:
			q--
		}
		kept = append(kept, q)
	}
	r.queue = kept
	return true
}

// Speaker returns the speaker at index, or the empty placeholder.
func (r *Roster) Speaker(index int) Speaker {
	if !r.valid(index) {
		return Speaker{}
	}
	return r.speakers[index]
}

// Speakers returns a copy of the roster.
func (r *Roster) Speakers() []Speaker {
	return append([]Speaker(nil), r.speakers...)
}

// Len returns the number of speakers.
func (r *Roster) Len() int { return len(r.speakers) }

// Enqueue appends index to the turn queue. A speaker may be queued more than
// once. Returns false for an index outside the roster.
func (r *Roster) Enqueue(index int) bool {
	if !r.valid(index) {
		return false
	}
	r.queue = append(r.queue, index)
	return true
}

// Dequeue pops the queue front and returns the speaker and its index.
// An empty queue yields the placeholder and -1.
func (r *Roster) Dequeue() (Speaker, int) {
	if len(r.queue) == 0 {
		return Speaker{}, NoSpeaker
	}
	index := r.queue[0]
	r.queue = r.queue[1:]
	if !r.valid(index) {
		return Speaker{}, NoSpeaker
	}
	return r.speakers[index], index
}

// RemoveFromQueue drops the queue entry at position.
func (r *Roster) RemoveFromQueue(position int) bool {
	if position < 0 || position >= len(r.queue) {
		return false
	}
	r.queue = append(r.queue[:position], r.queue[position+1:]...)
	return true
}

// CurrentSpeaker resolves the queue front.
func (r *Roster) CurrentSpeaker() Speaker { return r.at(0) }

// PeekNext resolves the second queue entry.
func (r *Roster) PeekNext() Speaker { return r.at(1) }

// Queue returns a copy of the turn queue.
func (r *Roster) Queue() []int {
	return append([]int(nil), r.queue...)
}

func (r *Roster) clone() Roster {
	return Roster{speakers: r.Speakers(), queue: r.Queue()}
}

func (r *Roster) at(position int) Speaker {
	if position >= len(r.queue) {
		return Speaker{}
	}
	return r.Speaker(r.queue[position])
}

func (r *Roster) valid(index int) bool {
	return index >= 0 && index < len(r.speakers)
}
