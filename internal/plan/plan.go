// Package plan holds the static subscription catalog: tiers, prices,
// features, and per-resource ceilings. The catalog is built once at init
// and never mutated, so it is safe for unsynchronized concurrent reads.
package plan

// Tier is a named subscription level.
type Tier string

const (
	TierFree         Tier = "FREE"
	TierStarter      Tier = "STARTER"
	TierProfessional Tier = "PROFESSIONAL"
	TierEnterprise   Tier = "ENTERPRISE"
)

// Resource is a governed, countable resource.
type Resource string

const (
	ResourceUsers         Resource = "users"
	ResourceContacts      Resource = "contacts"
	ResourceProjects      Resource = "projects"
	ResourceDocuments     Resource = "documents"
	ResourceAccounts      Resource = "accounts"
	ResourceLeads         Resource = "leads"
	ResourceOpportunities Resource = "opportunities"
	ResourceTasks         Resource = "tasks"
	ResourceStorageBytes  Resource = "storage_bytes"
)

// Unlimited is the sentinel ceiling meaning no limit applies.
const Unlimited int64 = -1

// Plan describes one subscription level.
type Plan struct {
	Tier         Tier
	Name         string
	PriceCents   int64
	Features     []string
	Limits       map[Resource]int64
	CustomDomain bool
}

// tierRanks is the sole source of truth for tier comparison. Ranks are
// explicit so reordering the catalog below cannot change ordering semantics.
var tierRanks = map[Tier]int{
	TierFree:         0,
	TierStarter:      1,
	TierProfessional: 2,
	TierEnterprise:   3,
}

var catalog = map[Tier]Plan{
	TierFree: {
		Tier:       TierFree,
		Name:       "Free",
		PriceCents: 0,
		Features:   []string{"basic_crm", "email_support"},
		Limits: map[Resource]int64{
			ResourceUsers:         3,
			ResourceContacts:      100,
			ResourceProjects:      5,
			ResourceDocuments:     50,
			ResourceAccounts:      50,
			ResourceLeads:         100,
			ResourceOpportunities: 50,
			ResourceTasks:         200,
			ResourceStorageBytes:  1 << 30, // 1 GiB
		},
	},
	TierStarter: {
		Tier:       TierStarter,
		Name:       "Starter",
		PriceCents: 2900,
		Features:   []string{"basic_crm", "email_support", "integrations"},
		Limits: map[Resource]int64{
			ResourceUsers:         10,
			ResourceContacts:      2500,
			ResourceProjects:      50,
			ResourceDocuments:     1000,
			ResourceAccounts:      1000,
			ResourceLeads:         2500,
			ResourceOpportunities: 1000,
			ResourceTasks:         5000,
			ResourceStorageBytes:  10 << 30,
		},
	},
	TierProfessional: {
		Tier:         TierProfessional,
		Name:         "Professional",
		PriceCents:   9900,
		Features:     []string{"basic_crm", "email_support", "integrations", "custom_domain", "api_access"},
		CustomDomain: true,
		Limits: map[Resource]int64{
			ResourceUsers:         50,
			ResourceContacts:      25000,
			ResourceProjects:      500,
			ResourceDocuments:     Unlimited,
			ResourceAccounts:      10000,
			ResourceLeads:         25000,
			ResourceOpportunities: 10000,
			ResourceTasks:         Unlimited,
			ResourceStorageBytes:  100 << 30,
		},
	},
	TierEnterprise: {
		Tier:         TierEnterprise,
		Name:         "Enterprise",
		PriceCents:   29900,
		Features:     []string{"basic_crm", "priority_support", "integrations", "custom_domain", "api_access", "sso", "audit_log"},
		CustomDomain: true,
		Limits: map[Resource]int64{
			ResourceUsers:         Unlimited,
			ResourceContacts:      Unlimited,
			ResourceProjects:      Unlimited,
			ResourceDocuments:     Unlimited,
			ResourceAccounts:      Unlimited,
			ResourceLeads:         Unlimited,
			ResourceOpportunities: Unlimited,
			ResourceTasks:         Unlimited,
			ResourceStorageBytes:  Unlimited,
		},
	},
}

// Tiers returns all tiers in ascending rank order.
func Tiers() []Tier {
	return []Tier{TierFree, TierStarter, TierProfessional, TierEnterprise}
}

// Get returns the plan for a tier. Unknown tiers fall back to FREE so a
// corrupt tenant row degrades to the most restrictive limits.
func Get(tier Tier) Plan {
	if p, ok := catalog[tier]; ok {
		return p
	}
	return catalog[TierFree]
}

// Valid reports whether tier names a known plan.
func Valid(tier Tier) bool {
	_, ok := catalog[tier]
	return ok
}

// Rank returns the tier's position in the total order. Unknown tiers rank
// below FREE.
func Rank(tier Tier) int {
	if r, ok := tierRanks[tier]; ok {
		return r
	}
	return -1
}

// Limit returns the ceiling for a resource under the given tier.
// Unknown resources return 0, denying by default.
func Limit(tier Tier, resource Resource) int64 {
	limit, ok := Get(tier).Limits[resource]
	if !ok {
		return 0
	}
	return limit
}

// IsFeatureAvailable reports whether current satisfies the required tier.
func IsFeatureAvailable(current, required Tier) bool {
	return Rank(current) >= Rank(required)
}

// CanUpgradeTo reports whether target is a strictly higher tier.
func CanUpgradeTo(current, target Tier) bool {
	if !Valid(target) {
		return false
	}
	return Rank(target) > Rank(current)
}

// AllowsCustomDomain reports whether the tier may serve a custom domain.
func AllowsCustomDomain(tier Tier) bool {
	return Get(tier).CustomDomain
}

// Resources returns every governed resource.
func Resources() []Resource {
	return []Resource{
		ResourceUsers,
		ResourceContacts,
		ResourceProjects,
		ResourceDocuments,
		ResourceAccounts,
		ResourceLeads,
		ResourceOpportunities,
		ResourceTasks,
		ResourceStorageBytes,
	}
}
