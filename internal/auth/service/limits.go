package service

import (
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// Unlimited marks a plan ceiling that is never enforced.
const Unlimited = -1

// PlanLimits are the resource ceilings of one plan.
type PlanLimits struct {
	Agents       int `json:"agents"`
	Grants       int `json:"grants"`
	Policies     int `json:"policies"`
	AuditEntries int `json:"auditEntries"`
}

var planLimits = map[domain.Plan]PlanLimits{
	domain.PlanFree:       {Agents: 3, Grants: 50, Policies: 5, AuditEntries: 1_000},
	domain.PlanPro:        {Agents: 25, Grants: 500, Policies: 50, AuditEntries: 50_000},
	domain.PlanEnterprise: {Agents: Unlimited, Grants: Unlimited, Policies: Unlimited, AuditEntries: Unlimited},
}

// LimitsFor returns the ceilings of plan. Unknown plans get the free tier.
func LimitsFor(plan domain.Plan) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[domain.PlanFree]
}

// ValidPlan reports whether plan is one the service knows.
func ValidPlan(plan domain.Plan) bool {
	_, ok := planLimits[plan]
	return ok
}

func checkLimit(plan domain.Plan, resource string, used, limit int) error {
	if limit == Unlimited || used < limit {
		return nil
	}
	return Errorf(httpx.CodePlanLimitExceeded,
		"Plan limit reached: the %s plan allows %d %s", plan, limit, resource)
}
