package searcher

import "time"

// Budget decides how many simulations a move gets.
type Budget interface {
	Start()
	CanContinue() bool
}

type simulations struct {
	limit int
	done  int
}

// Simulations allows exactly n simulations per move.
func Simulations(n int) Budget {
	return &simulations{limit: n}
}

func (b *simulations) Start() {
	b.done = 0
}

func (b *simulations) CanContinue() bool {
	if b.done >= b.limit {
		return false
	}
	b.done++
	return true
}

type deadline struct {
	limit time.Duration
	now   func() time.Time
	start time.Time
}

// Deadline allows simulations until d has passed since Start.
func Deadline(d time.Duration) Budget {
	return &deadline{limit: d, now: time.Now}
}

func (b *deadline) Start() {
	b.start = b.now()
}

func (b *deadline) CanContinue() bool {
	return b.now().Sub(b.start) < b.limit
}
