package session

import "sync"

// GuestQuestionLimit is how many questions a guest may answer per process.
const GuestQuestionLimit = 15

// Allowance caps the number of answered questions. A zero limit means
// unlimited.
type Allowance struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewAllowance returns an allowance of limit answered questions.
func NewAllowance(limit int) *Allowance {
	return &Allowance{limit: limit}
}

// Unlimited returns an allowance that never runs out.
func Unlimited() *Allowance {
	return &Allowance{}
}

// Record counts one answered question and reports whether the allowance is
// now exhausted.
func (a *Allowance) Record() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.used++
	return a.limit > 0 && a.used >= a.limit
}

// Exhausted reports whether no answers remain.
func (a *Allowance) Exhausted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit > 0 && a.used >= a.limit
}

// Remaining returns how many answers are left, or -1 when unlimited.
func (a *Allowance) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit <= 0 {
		return -1
	}
	return max(a.limit-a.used, 0)
}

// Limited reports whether the allowance has a cap.
func (a *Allowance) Limited() bool {
	return a.limit > 0
}
