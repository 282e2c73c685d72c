package allocator

import "time"

// SlotValidationError represents a validation error for a specific slot
type SlotValidationError struct {
	SlotIndex     int
	Date          time.Time
	MemberID      string
	CriterionName string
	Description   string
}

// Criterion defines the interface for allocation criteria
// Criteria decide which members may fill a slot and how strongly each is preferred
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsSlotValid determines if a member may be allocated to a slot
	// Returns false if allocating the member would break a hard constraint
	// This acts as a veto - if ANY criterion returns false, the member cannot fill the slot
	IsSlotValid(state *RosterState, member *MemberState, slot *Slot) bool

	// CalculateSlotAffinity calculates how well a member suits a slot
	// Returns a score between 0.0 and 1.0 that will be multiplied by the criterion's affinity weight
	// Return 0 if this criterion doesn't affect member selection
	CalculateSlotAffinity(state *RosterState, member *MemberState, slot *Slot) float64

	// ValidateRosterState checks the final roster against this criterion's hard constraints
	// Returns a slice of validation errors (empty if all valid)
	ValidateRosterState(state *RosterState) []SlotValidationError

	// AffinityWeight returns the weight for slot affinity (typical range: 0.0 - 10.0)
	AffinityWeight() float64
}

// IsSlotValidForMember checks every criterion's veto
func IsSlotValidForMember(state *RosterState, member *MemberState, slot *Slot, criteria []Criterion) bool {
	if member.IsAllocated(slot) {
		return false
	}
	for _, criterion := range criteria {
		if !criterion.IsSlotValid(state, member, slot) {
			return false
		}
	}
	return true
}

// CalculateSlotAffinity sums the weighted affinity of every criterion
func CalculateSlotAffinity(state *RosterState, member *MemberState, slot *Slot, criteria []Criterion) float64 {
	total := 0.0
	for _, criterion := range criteria {
		weight := criterion.AffinityWeight()
		if weight == 0 {
			continue
		}
		total += weight * criterion.CalculateSlotAffinity(state, member, slot)
	}
	return total
}

// ValidateRosterState collects validation errors from every criterion
func ValidateRosterState(state *RosterState, criteria []Criterion) []SlotValidationError {
	var errors []SlotValidationError
	for _, criterion := range criteria {
		errors = append(errors, criterion.ValidateRosterState(state)...)
	}
	return errors
}
