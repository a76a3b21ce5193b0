package models

// Competency categories. BASIC items (name, contact details) never carry points.
const (
	CategoryBasic         = "BASIC"
	CategoryCertification = "CERTIFICATION"
	CategoryExperience    = "EXPERIENCE"
	CategoryEducation     = "EDUCATION"
	CategoryOther         = "OTHER"
)

type CompetencyItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Template     string `json:"template"`
	IsRepeatable bool   `json:"isRepeatable"`
	MaxEntries   int    `json:"maxEntries"`
}

type ProjectItem struct {
	ID                 string            `json:"id"`
	ProjectID          string            `json:"projectId"`
	CompetencyItemID   string            `json:"competencyItemId"`
	IsRequired         bool              `json:"isRequired"`
	MaxScore           int               `json:"maxScore"`
	ProofRequiredLevel string            `json:"proofRequiredLevel"`
	DisplayOrder       int               `json:"displayOrder"`
	Competency         CompetencyItem    `json:"competency"`
	Criteria           []ScoringCriteria `json:"criteria"`
}

// ScoringCriteria is the persisted form of a rule. ExpectedValue holds the
// matching-type specific payload as stored, which may be plain text or JSON.
type ScoringCriteria struct {
	ID              string  `json:"id"`
	ProjectItemID   string  `json:"projectItemId"`
	MatchingType    string  `json:"matchingType"`
	ExpectedValue   string  `json:"expectedValue"`
	Score           float64 `json:"score"`
	ValueSource     string  `json:"valueSource"`
	SourceField     string  `json:"sourceField,omitempty"`
	ExtractPattern  string  `json:"extractPattern,omitempty"`
	AggregationMode string  `json:"aggregationMode,omitempty"`
	DisplayOrder    int     `json:"displayOrder"`
}
