package service

import (
	"context"
	"errors"
	"time"

	"docquiz/internal/cache"
	"docquiz/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UsageGate enforces per-plan monthly quotas on metered resources.
type UsageGate interface {
	// CheckAndConsume admits one unit of resource for userID, or returns a
	// QUOTA_EXCEEDED error together with the denying decision.
	CheckAndConsume(ctx context.Context, userID string, resource domain.ResourceType) (*domain.UsageDecision, error)

	// CheckAndConsumeAll admits one unit of every resource, in order. A denial
	// rolls back the units already consumed by this call.
	CheckAndConsumeAll(ctx context.Context, userID string, resources []domain.ResourceType) ([]*domain.UsageDecision, error)
}

type usageGate struct {
	usageRepo    domain.UsageRepository
	planRepo     domain.PlanRepository
	txManager    domain.TransactionManager
	cache        domain.Cache
	plans        map[string]domain.PlanLimits
	planCacheTTL time.Duration
	logger       *zap.Logger
	now          func() time.Time
	planGroup    singleflight.Group
}

// NewUsageGate builds a gate. cache may be nil, in which case every check
// reads the subscription table.
func NewUsageGate(
	usageRepo domain.UsageRepository,
	planRepo domain.PlanRepository,
	txManager domain.TransactionManager,
	cache domain.Cache,
	plans map[string]domain.PlanLimits,
	planCacheTTL time.Duration,
	logger *zap.Logger,
) UsageGate {
	if plans == nil {
		plans = domain.DefaultPlanLimits()
	}
	return &usageGate{
		usageRepo:    usageRepo,
		planRepo:     planRepo,
		txManager:    txManager,
		cache:        cache,
		plans:        plans,
		planCacheTTL: planCacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

func (g *usageGate) CheckAndConsume(ctx context.Context, userID string, resource domain.ResourceType) (*domain.UsageDecision, error) {
	decisions, err := g.CheckAndConsumeAll(ctx, userID, []domain.ResourceType{resource})
	if len(decisions) == 0 {
		return nil, err
	}
	return decisions[0], err
}

func (g *usageGate) CheckAndConsumeAll(ctx context.Context, userID string, resources []domain.ResourceType) ([]*domain.UsageDecision, error) {
	if userID == "" {
		return nil, domain.NewInvalidInputError("user_id is required")
	}

	plan, err := g.resolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := g.limitsFor(plan)

	var decisions []*domain.UsageDecision
	var denied *domain.UsageDecision

	err = g.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		decisions = decisions[:0]

		if err := g.usageRepo.EnsureCounter(txCtx, userID); err != nil {
			return err
		}
		now := g.now()
		reset, err := g.usageRepo.ResetIfDue(txCtx, userID, now.AddDate(0, -1, 0), now)
		if err != nil {
			return err
		}
		if reset {
			g.logger.Info("UsageGate: monthly counters reset", zap.String("userID", userID))
		}

		for _, resource := range resources {
			limit := limits.Limit(resource)
			used, ok, err := g.usageRepo.IncrementIfBelow(txCtx, userID, resource, limit)
			if err != nil {
				return err
			}
			decision := &domain.UsageDecision{
				Allowed:  ok,
				Resource: resource,
				Used:     used,
				Limit:    limit,
				Plan:     plan,
			}
			if !ok {
				counter, err := g.usageRepo.GetCounter(txCtx, userID)
				if err != nil {
					return err
				}
				if counter != nil {
					decision.Used = counter.Get(resource)
				}
				quotaErr := domain.NewQuotaExceededError(plan, resource, limit)
				decision.Message = quotaErr.Message
				decisions = append(decisions, decision)
				denied = decision
				return quotaErr
			}
			decisions = append(decisions, decision)
		}
		return nil
	})
	if err != nil {
		if denied != nil && domain.HasCode(err, domain.CodeQuotaExceeded) {
			g.logger.Info("UsageGate: quota exceeded",
				zap.String("userID", userID),
				zap.String("plan", plan),
				zap.String("resource", string(denied.Resource)),
				zap.Int("used", denied.Used),
				zap.Int("limit", denied.Limit))
			return decisions, err
		}
		if _, ok := domain.AsDomainError(err); ok {
			return nil, err
		}
		return nil, domain.NewInternalError("Failed to check usage", err)
	}
	return decisions, nil
}

func (g *usageGate) limitsFor(plan string) domain.PlanLimits {
	if limits, ok := g.plans[plan]; ok {
		return limits
	}
	return g.plans[domain.PlanFree]
}

// resolvePlan returns the user's active plan, defaulting to Free. Concurrent
// lookups for one user share a single database read.
func (g *usageGate) resolvePlan(ctx context.Context, userID string) (string, error) {
	key := cache.PlanKey(userID)
	if g.cache != nil {
		plan, err := g.cache.Get(ctx, key)
		if err == nil && plan != "" {
			return plan, nil
		}
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			g.logger.Warn("UsageGate: plan cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, _ := g.planGroup.Do(userID, func() (interface{}, error) {
		name, err := g.planRepo.GetActivePlanName(ctx, userID)
		if err != nil {
			return "", err
		}
		if _, ok := g.plans[name]; !ok {
			name = domain.PlanFree
		}
		if g.cache != nil {
			if err := g.cache.Set(ctx, key, name, g.planCacheTTL); err != nil {
				g.logger.Warn("UsageGate: plan cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return name, nil
	})
	if err != nil {
		return "", domain.NewInternalError("Failed to resolve plan", err)
	}
	return v.(string), nil
}
