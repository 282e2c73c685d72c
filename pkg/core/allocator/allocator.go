package allocator

import (
	"context"
	"math"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// affinityEpsilon treats affinities closer than this as tied
const affinityEpsilon = 1e-9

// Allocator manages the roster generation process with configurable criteria
type Allocator struct {
	criteria []Criterion
	state    *RosterState
	seed     uint64
}

// AllocationConfig contains the configuration for creating a new Allocator
type AllocationConfig struct {
	// Config drives coverage, the period and the seed
	Config model.GenerationConfig

	// Criteria to apply during allocation (with their weights)
	Criteria []Criterion

	// Members is the pool of members at the station
	Members []model.Member

	// History is every member's shift records before the period, plus shifts of already published rosters
	History []model.ShiftRecord

	// Patterns override the default shift times
	Patterns model.ShiftPatterns
}

// AllocationOutcome represents the result of a roster generation
type AllocationOutcome struct {
	// State is the final roster state after allocation
	State *RosterState

	// Success indicates whether every slot was filled without validation errors
	Success bool

	// Assignments made, in slot order
	Assignments []model.ShiftAssignment

	// UnresolvedSlots lists slots that could not reach their minimum coverage
	UnresolvedSlots []model.UnresolvedSlot

	// ValidationErrors contains any validation errors found in the final state
	ValidationErrors []SlotValidationError
}

// Allocate fills every slot chronologically, choosing the best valid member for each opening.
// The context is checked between slots so a cancelled generation stops promptly.
func Allocate(ctx context.Context, config AllocationConfig) (*AllocationOutcome, error) {
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	for _, slot := range allocator.state.Slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for !slot.IsFull() {
			member := allocator.findBestMember(slot)
			if member == nil {
				break
			}
			allocator.allocateMemberToSlot(member, slot)
		}
	}

	return allocator.buildOutcome(), nil
}

type candidate struct {
	member   *MemberState
	affinity float64
	runHours float64
	hash     uint64
}

// findBestMember ranks the valid members for a slot and returns the best, or nil if none are valid
func (a *Allocator) findBestMember(slot *Slot) *MemberState {
	var candidates []candidate
	dateKey := slot.Date.Format(model.DateLayout)

	for _, member := range a.state.Members {
		if !IsSlotValidForMember(a.state, member, slot, a.criteria) {
			continue
		}
		candidates = append(candidates, candidate{
			member:   member,
			affinity: CalculateSlotAffinity(a.state, member, slot, a.criteria),
			runHours: member.RunHours(),
			hash:     xxh3.HashStringSeed(member.ID()+"|"+dateKey, a.seed),
		})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].less(candidates[j])
	})
	return candidates[0].member
}

// less orders candidates by affinity, then seniority, then hours already rostered, then the seeded hash
func (c candidate) less(other candidate) bool {
	if math.Abs(c.affinity-other.affinity) > affinityEpsilon {
		return c.affinity > other.affinity
	}
	if c.member.Member.SeniorityYears != other.member.Member.SeniorityYears {
		return c.member.Member.SeniorityYears > other.member.Member.SeniorityYears
	}
	if c.runHours != other.runHours {
		return c.runHours < other.runHours
	}
	if c.hash != other.hash {
		return c.hash < other.hash
	}
	return c.member.ID() < other.member.ID()
}

// allocateMemberToSlot assigns a member to a slot and updates state
func (a *Allocator) allocateMemberToSlot(member *MemberState, slot *Slot) {
	slot.Assigned = append(slot.Assigned, member)
	member.allocate(slot)
}

// buildOutcome creates the final allocation outcome report
func (a *Allocator) buildOutcome() *AllocationOutcome {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		State:            a.state,
		Assignments:      []model.ShiftAssignment{},
		UnresolvedSlots:  []model.UnresolvedSlot{},
		ValidationErrors: []SlotValidationError{},
	}

	for _, slot := range a.state.Slots {
		for _, member := range slot.Assigned {
			outcome.Assignments = append(outcome.Assignments, model.ShiftAssignment{
				MemberID: member.ID(),
				Date:     slot.Date,
				Type:     slot.Type,
				Hours:    slot.Hours,
			})
		}
		if !slot.IsFull() {
			outcome.UnresolvedSlots = append(outcome.UnresolvedSlots, model.UnresolvedSlot{
				Date:     slot.Date,
				Type:     slot.Type,
				Required: slot.Required,
				Assigned: len(slot.Assigned),
			})
		}
	}

	outcome.ValidationErrors = append(outcome.ValidationErrors, ValidateRosterState(a.state, a.criteria)...)
	outcome.Success = len(outcome.UnresolvedSlots) == 0 && len(outcome.ValidationErrors) == 0

	return outcome
}
