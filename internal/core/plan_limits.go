package core

import "fmt"

// PlanLimiter enforces the plan -> max-stores table. The table comes from
// configuration so operators can adjust tiers without a code change.
type PlanLimiter struct {
	limits map[string]int
}

// NewPlanLimiter creates a PlanLimiter from a plan -> max-stores table.
func NewPlanLimiter(limits map[string]int) *PlanLimiter {
	return &PlanLimiter{limits: limits}
}

// MaxStores returns the store allowance for a plan. Unknown plans fall back to
// the most restrictive allowance rather than unlimited.
func (l *PlanLimiter) MaxStores(plan string) int {
	if max, ok := l.limits[plan]; ok {
		return max
	}
	return 1
}

// CanCreateStore decides whether a user on the given plan may create another
// store. Returns ErrStoreLimitReached with an actionable message when not.
func (l *PlanLimiter) CanCreateStore(plan string, currentStoreCount int) error {
	max := l.MaxStores(plan)
	if currentStoreCount >= max {
		return fmt.Errorf("%w: plan '%s' allows %d store(s), current count is %d",
			ErrStoreLimitReached, plan, max, currentStoreCount)
	}
	return nil
}
