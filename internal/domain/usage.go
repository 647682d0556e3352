package domain

import (
	"fmt"
	"time"
)

// ResourceType names a metered usage counter.
type ResourceType string

const (
	ResourceAICalls           ResourceType = "ai_calls"
	ResourceDocumentsUploaded ResourceType = "documents_uploaded"
	ResourceQuizzesCreated    ResourceType = "quizzes_created"
)

// ResourceTypes lists every metered resource in the order the pipeline gates them.
var ResourceTypes = []ResourceType{
	ResourceDocumentsUploaded,
	ResourceQuizzesCreated,
	ResourceAICalls,
}

// ParseResourceType validates an externally supplied resource name.
func ParseResourceType(s string) (ResourceType, error) {
	for _, r := range ResourceTypes {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

// Unlimited marks a limit that is never enforced.
const Unlimited = -1

const (
	PlanFree     = "Free"
	PlanStandard = "Standard"
	PlanPro      = "Pro"
)

// PlanLimits maps each resource to its monthly allowance.
type PlanLimits map[ResourceType]int

// Limit returns the allowance for r; unknown resources are not allowed at all.
func (p PlanLimits) Limit(r ResourceType) int {
	limit, ok := p[r]
	if !ok {
		return 0
	}
	return limit
}

// DefaultPlanLimits are the built-in tiers. Configuration may override them.
func DefaultPlanLimits() map[string]PlanLimits {
	return map[string]PlanLimits{
		PlanFree: {
			ResourceAICalls:           50,
			ResourceDocumentsUploaded: 3,
			ResourceQuizzesCreated:    5,
		},
		PlanStandard: {
			ResourceAICalls:           400,
			ResourceDocumentsUploaded: 15,
			ResourceQuizzesCreated:    50,
		},
		PlanPro: {
			ResourceAICalls:           Unlimited,
			ResourceDocumentsUploaded: Unlimited,
			ResourceQuizzesCreated:    Unlimited,
		},
	}
}

// UsageCounter is the per-user row of monthly counters.
type UsageCounter struct {
	UserID            string
	AICalls           int
	DocumentsUploaded int
	QuizzesCreated    int
	LastReset         time.Time
	UpdatedAt         time.Time
}

// Get returns the counter value for r.
func (u UsageCounter) Get(r ResourceType) int {
	switch r {
	case ResourceAICalls:
		return u.AICalls
	case ResourceDocumentsUploaded:
		return u.DocumentsUploaded
	case ResourceQuizzesCreated:
		return u.QuizzesCreated
	}
	return 0
}

// ResetDue reports whether a full calendar month has passed since LastReset.
func (u UsageCounter) ResetDue(now time.Time) bool {
	return !u.LastReset.After(now.AddDate(0, -1, 0))
}

// UsageDecision is the outcome of a gate check.
type UsageDecision struct {
	Allowed  bool
	Resource ResourceType
	Used     int
	Limit    int
	Plan     string
	Message  string
}

// Remaining is nil for unlimited plans.
func (d UsageDecision) Remaining() *int {
	if d.Limit == Unlimited {
		return nil
	}
	r := d.Limit - d.Used
	if r < 0 {
		r = 0
	}
	return &r
}
