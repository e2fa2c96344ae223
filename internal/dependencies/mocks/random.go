package mocks

import (
	"sync"

	"github.com/mcoot/seabattle/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Empty queues yield zero values, so an unprimed mock always picks the first option.
type MockRandom struct {
	mu sync.Mutex

	IntnResults []int
	intnIndex   int

	BoolResults []bool
	boolIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result clamped into [0, n), or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) || n <= 0 {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	if result < 0 || result >= n {
		return 0
	}
	return result
}

// Bool returns the next queued result, or false if none remaining
func (r *MockRandom) Bool() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.boolIndex >= len(r.BoolResults) {
		return false
	}
	result := r.BoolResults[r.boolIndex]
	r.boolIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueBool adds values to the Bool result queue
func (r *MockRandom) QueueBool(values ...bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BoolResults = append(r.BoolResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.BoolResults = nil
	r.boolIndex = 0
}
