package metrics

import "time"

// Nop discards every measurement.
type Nop struct{}

var _ Recorder = (*Nop)(nil)

// NewNop creates a recorder that records nothing
func NewNop() *Nop {
	return &Nop{}
}

func (n *Nop) ObserveGeneration(_, _ string, _ time.Duration, _ int) {}

func (n *Nop) ObservePublish(_ string) {}

func (n *Nop) ObserveCompliance(_ string) {}
