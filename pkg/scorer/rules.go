package scorer

// Perspective is one weighted lens of the audit rubric.
type Perspective struct {
	Name   string
	Label  string
	Weight int // Percentage of the overall score
	Focus  string
}

// Perspectives is the audit rubric in evaluation order. Weights sum to 100.
//
//nolint:gochecknoglobals // Rubric configuration constants
var Perspectives = []Perspective{
	{
		Name:   "Performance",
		Label:  "Website Performance",
		Weight: 20,
		Focus:  "Page speed (LCP, CLS, INP), responsiveness, resource optimization.",
	},
	{
		Name:   "SEO",
		Label:  "SEO & Findability",
		Weight: 25,
		Focus:  "On-page elements, internal linking, schema, crawlability.",
	},
	{
		Name:   "UX",
		Label:  "UX & Aesthetics",
		Weight: 25,
		Focus:  "Layout, visual hierarchy, cognitive load, navigation, accessibility (WCAG).",
	},
	{
		Name:   "Content",
		Label:  "Content & Messaging",
		Weight: 20,
		Focus:  "Clarity, value prop, tone, information hierarchy.",
	},
	{
		Name:   "Conversion",
		Label:  "Behavioral & Conversion",
		Weight: 10,
		Focus:  "Paths to conversion, friction points, engagement signals.",
	},
}

// Band is a coarse quality rating for a 0-100 score.
type Band string

const (
	// BandPoor is any score below PoorThreshold.
	BandPoor Band = "poor"
	// BandFair is any score below GoodThreshold.
	BandFair Band = "fair"
	// BandGood is everything else.
	BandGood Band = "good"
)

const (
	// PoorThreshold is the exclusive upper bound of the poor band.
	PoorThreshold = 50
	// GoodThreshold is the inclusive lower bound of the good band.
	GoodThreshold = 80
)
