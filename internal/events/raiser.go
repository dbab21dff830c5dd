package events

// Raiser buffers domain events on an aggregate until orchestration code
// pulls them after a successful save. Embed it by value in any entity
// that raises events; the unexported slice is invisible to gorm.
type Raiser struct {
	pending []Event
}

// Raise appends an event to the buffer.
func (r *Raiser) Raise(e Event) {
	r.pending = append(r.pending, e)
}

// PullEvents returns the buffered events in raise order and clears the
// buffer. The caller owns the returned slice.
func (r *Raiser) PullEvents() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// HasPending reports whether any events are waiting to be dispatched.
func (r *Raiser) HasPending() bool {
	return len(r.pending) > 0
}
