package model

// Action identifies a paid action for cost lookup.
type Action string

const (
	ActionPreviewGenerate Action = "preview"
	ActionAIEnhance       Action = "ai_enhance"
	ActionDeployBase      Action = "deploy"
	ActionHostingMonthly  Action = "hosting_monthly"
	ActionHostingAnnual   Action = "hosting_annual"
)

// DefaultMaxLiveSites caps simultaneously live sites per agent.
const DefaultMaxLiveSites = 10

// CostPolicy is a pure lookup table mapping actions to credit amounts. The
// annual hosting price is deliberately below 12x monthly to reward annual
// commitment.
type CostPolicy struct {
	MaxLiveSites int
}

func NewCostPolicy(maxLiveSites int) CostPolicy {
	if maxLiveSites <= 0 {
		maxLiveSites = DefaultMaxLiveSites
	}
	return CostPolicy{MaxLiveSites: maxLiveSites}
}

// CostOf returns the credit price of an action. Unknown actions cost zero.
func (CostPolicy) CostOf(a Action) int {
	switch a {
	case ActionPreviewGenerate:
		return 1
	case ActionAIEnhance:
		return 1
	case ActionDeployBase:
		return 20
	case ActionHostingMonthly:
		return 5
	case ActionHostingAnnual:
		return 50
	default:
		return 0
	}
}

// HostingCost maps a hosting plan to its per-period credit price.
func (p CostPolicy) HostingCost(plan HostingPlan) int {
	switch plan {
	case HostingPlanAnnual:
		return p.CostOf(ActionHostingAnnual)
	case HostingPlanMonthly:
		return p.CostOf(ActionHostingMonthly)
	default:
		return 0
	}
}

// DeployCost is the full admission charge: base fee plus the first hosting
// period for the chosen plan.
func (p CostPolicy) DeployCost(plan HostingPlan) (base, hosting, total int) {
	base = p.CostOf(ActionDeployBase)
	hosting = p.HostingCost(plan)
	return base, hosting, base + hosting
}
