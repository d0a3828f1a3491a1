package analyzer

// SEOAnalysis holds the raw tag values extracted from a page.
// Empty fields mean the tag was absent or empty.
type SEOAnalysis struct {
	URL                string `json:"url"`
	Title              string `json:"title,omitempty"`
	Description        string `json:"description,omitempty"`
	OGTitle            string `json:"ogTitle,omitempty"`
	OGDescription      string `json:"ogDescription,omitempty"`
	OGImage            string `json:"ogImage,omitempty"`
	OGType             string `json:"ogType,omitempty"`
	TwitterCard        string `json:"twitterCard,omitempty"`
	TwitterTitle       string `json:"twitterTitle,omitempty"`
	TwitterDescription string `json:"twitterDescription,omitempty"`
	TwitterImage       string `json:"twitterImage,omitempty"`
	Canonical          string `json:"canonical,omitempty"`
	Robots             string `json:"robots,omitempty"`
	Viewport           string `json:"viewport,omitempty"`
}

// IssueType is the severity of a single finding.
type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
	IssueSuccess IssueType = "success"
	IssueInfo    IssueType = "info"
)

// Category groups issues and score points.
type Category string

const (
	CategoryBasic     Category = "Basic Meta Tags"
	CategoryOpenGraph Category = "Open Graph Tags"
	CategoryTwitter   Category = "Twitter Cards"
	CategoryTechnical Category = "Technical Tags"
)

// Categories lists every category in evaluation order.
var Categories = []Category{CategoryBasic, CategoryOpenGraph, CategoryTwitter, CategoryTechnical}

// SEOIssue is one detected condition.
type SEOIssue struct {
	Type           IssueType `json:"type"`
	Category       Category  `json:"category"`
	Message        string    `json:"message"`
	Tag            string    `json:"tag,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// CategoryScores holds the accumulated points of each category.
type CategoryScores struct {
	Basic     int `json:"basic"`
	OpenGraph int `json:"openGraph"`
	Twitter   int `json:"twitter"`
	Technical int `json:"technical"`
}

// SEOScore is the per-category and overall score of an analysis.
type SEOScore struct {
	Overall    int            `json:"overall"`
	Categories CategoryScores `json:"categories"`
}

// Result is everything produced for one analyzed URL.
type Result struct {
	Analysis SEOAnalysis `json:"analysis"`
	Score    SEOScore    `json:"score"`
	Issues   []SEOIssue  `json:"issues"`
}

// Counts returns the number of issues per type.
func (r *Result) Counts() map[IssueType]int {
	counts := make(map[IssueType]int, 4)
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}
