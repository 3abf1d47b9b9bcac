package optimizer

// LinkTargets holds the expected outbound/inbound internal-link counts for a
// page category.
type LinkTargets struct {
	Outbound int
	Inbound  int
}

// Config holds every tunable weight table the engine uses. It is an immutable
// value passed in at construction; nothing mutates it after that, so separate
// engines with different configs can run side by side.
type Config struct {
	// PriorityWeights maps the editorial priority tier (1-5) to its weight.
	// Unknown tiers fall back to tier 3.
	PriorityWeights map[int]float64

	// BusinessWeights maps a page category or template to its business value.
	// Unknown keys fall back to the "article" weight.
	BusinessWeights map[string]float64

	// GapWeights maps a gap type to its scoring weight. Unknown types weigh 0.
	GapWeights map[string]float64

	// RefreshIntervals maps a priority tier to the default refresh interval in
	// days, used when a page carries no explicit override.
	RefreshIntervals map[int]int

	// LinkTargets maps a category to its expected link counts; the "article"
	// entry is the fallback.
	LinkTargets map[string]LinkTargets

	// MinWordCounts maps a category to its thin-content threshold; the
	// "article" entry is the fallback.
	MinWordCounts map[string]int

	// Cluster-balance selection fairness parameters.
	ClusterLookbackDays int
	ClusterPenalty      float64 // applied once a cluster has ClusterMaxRecent selections in the window
	ClusterBonus        float64
	ClusterMaxRecent    int

	// DailyCount is the default number of recommendations per run.
	DailyCount int
}

// defaultCategory is the fallback key for the per-category tables.
const defaultCategory = "article"

// DefaultConfig returns the engine's default weight tables.
func DefaultConfig() Config {
	return Config{
		PriorityWeights: map[int]float64{
			1: 5,
			2: 3,
			3: 1,
			4: 0.5,
			5: 0.2,
		},
		BusinessWeights: map[string]float64{
			"product":    25,
			"calculator": 22,
			"comparison": 20,
			"hub":        18,
			"pillar":     17,
			"landing":    15,
			"cluster":    14,
			"guide":      12,
			"howto":      11,
			"faq":        10,
			"article":    8,
			"glossary":   6,
			"legal":      2,
		},
		GapWeights: map[string]float64{
			"missing-h1":       0.9,
			"missing-proof":    0.8,
			"low-links":        0.7,
			"thin-content":     0.6,
			"missing-faq":      0.5,
			"no-schema":        0.4,
			"few-h2":           0.3,
			"missing-glossary": 0.2,
		},
		RefreshIntervals: map[int]int{
			1: 14,
			2: 30,
			3: 60,
			4: 90,
			5: 180,
		},
		LinkTargets: map[string]LinkTargets{
			"product":    {Outbound: 5, Inbound: 8},
			"calculator": {Outbound: 4, Inbound: 8},
			"comparison": {Outbound: 6, Inbound: 5},
			"hub":        {Outbound: 10, Inbound: 5},
			"pillar":     {Outbound: 8, Inbound: 6},
			"guide":      {Outbound: 5, Inbound: 4},
			"faq":        {Outbound: 3, Inbound: 3},
			"article":    {Outbound: 3, Inbound: 2},
		},
		MinWordCounts: map[string]int{
			"product":    800,
			"calculator": 600,
			"comparison": 900,
			"hub":        1200,
			"pillar":     1500,
			"guide":      1000,
			"faq":        300,
			"glossary":   200,
			"legal":      400,
			"article":    600,
		},
		ClusterLookbackDays: 7,
		ClusterPenalty:      -1.0,
		ClusterBonus:        0.3,
		ClusterMaxRecent:    2,
		DailyCount:          3,
	}
}

// effectiveType returns the key used for per-category lookups: the template
// when set, otherwise the category.
func effectiveType(template, category string) string {
	if template != "" {
		return template
	}
	return category
}

// businessWeight resolves the business weight for a type key, falling back to
// the "article" entry for unknown keys.
func (c Config) businessWeight(typeKey string) float64 {
	if w, ok := c.BusinessWeights[typeKey]; ok {
		return w
	}
	return c.BusinessWeights[defaultCategory]
}

// priorityWeight resolves the weight for a priority tier, falling back to
// tier 3 for unknown tiers.
func (c Config) priorityWeight(tier int) float64 {
	if w, ok := c.PriorityWeights[tier]; ok {
		return w
	}
	return c.PriorityWeights[3]
}

// refreshInterval resolves the refresh interval in days for a page: the
// explicit per-page override when present, else the tier default, else the
// tier-3 default.
func (c Config) refreshInterval(override, tier int) int {
	if override > 0 {
		return override
	}
	if d, ok := c.RefreshIntervals[tier]; ok {
		return d
	}
	return c.RefreshIntervals[3]
}

// linkTargets resolves the link targets for a type key with the "article"
// fallback.
func (c Config) linkTargets(typeKey string) LinkTargets {
	if t, ok := c.LinkTargets[typeKey]; ok {
		return t
	}
	return c.LinkTargets[defaultCategory]
}

// minWordCount resolves the thin-content word threshold for a type key with
// the "article" fallback.
func (c Config) minWordCount(typeKey string) int {
	if n, ok := c.MinWordCounts[typeKey]; ok {
		return n
	}
	return c.MinWordCounts[defaultCategory]
}

// gapWeight resolves the scoring weight for a gap type; unknown types weigh 0.
func (c Config) gapWeight(gapType string) float64 {
	return c.GapWeights[gapType]
}
