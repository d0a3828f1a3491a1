package analyzer

import (
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	titleMinLength       = 30
	titleMaxLength       = 60
	descriptionMinLength = 120
	descriptionMaxLength = 160
	snippetLength        = 50
)

// outcome is what a single rule contributes: points to its category and the
// issues it reports. Points and issues are independent; a rule may award
// points without reporting anything.
type outcome struct {
	category Category
	points   int
	issues   []SEOIssue
}

type rule func(a *SEOAnalysis) outcome

// rules run in this order; the issue list follows it.
var rules = []rule{
	titleRule,
	descriptionRule,
	ogTitleRule,
	ogDescriptionRule,
	ogImageRule,
	twitterCardRule,
	twitterTitleRule,
	twitterDescriptionRule,
	viewportRule,
	canonicalRule,
	robotsRule,
}

// Evaluate runs every rule over a and returns the issues and score.
func Evaluate(a SEOAnalysis) ([]SEOIssue, SEOScore) {
	issues := make([]SEOIssue, 0, len(rules))
	var cats CategoryScores
	for _, r := range rules {
		out := r(&a)
		issues = append(issues, out.issues...)
		cats.add(out.category, out.points)
	}
	return issues, SEOScore{Overall: cats.overall(), Categories: cats}
}

func (c *CategoryScores) add(cat Category, points int) {
	switch cat {
	case CategoryBasic:
		c.Basic += points
	case CategoryOpenGraph:
		c.OpenGraph += points
	case CategoryTwitter:
		c.Twitter += points
	case CategoryTechnical:
		c.Technical += points
	}
}

func (c CategoryScores) overall() int {
	sum := c.Basic + c.OpenGraph + c.Twitter + c.Technical
	return int(math.Round(float64(sum) / 4))
}

func issue(t IssueType, cat Category, msg, tag, rec string) SEOIssue {
	return SEOIssue{Type: t, Category: cat, Message: msg, Tag: tag, Recommendation: rec}
}

func single(cat Category, points int, i SEOIssue) outcome {
	return outcome{category: cat, points: points, issues: []SEOIssue{i}}
}

// truncate shortens s to snippetLength characters followed by "...".
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes) + "..."
}

func metaNameTag(name, content string) string {
	return fmt.Sprintf(`<meta name=%q content="%s">`, name, content)
}

func metaPropertyTag(property, content string) string {
	return fmt.Sprintf(`<meta property=%q content="%s">`, property, content)
}

func titleRule(a *SEOAnalysis) outcome {
	if a.Title == "" {
		return single(CategoryBasic, 0, issue(IssueError, CategoryBasic,
			"Title tag is missing",
			"<title>Your Page Title Here</title>",
			"Add a unique, descriptive title tag to every page. This is crucial for SEO."))
	}

	tag := "<title>" + a.Title + "</title>"
	switch n := utf8.RuneCountInString(a.Title); {
	case n >= titleMinLength && n <= titleMaxLength:
		return single(CategoryBasic, 50, issue(IssueSuccess, CategoryBasic,
			"Title tag is present and optimal length", tag, ""))
	case n < titleMinLength:
		return single(CategoryBasic, 25, issue(IssueWarning, CategoryBasic,
			"Title tag is too short", tag,
			"Aim for 30-60 characters for optimal display in search results."))
	default:
		return single(CategoryBasic, 25, issue(IssueWarning, CategoryBasic,
			"Title tag is too long", tag,
			"Keep title tags between 30-60 characters to avoid truncation in search results."))
	}
}

func descriptionRule(a *SEOAnalysis) outcome {
	if a.Description == "" {
		return single(CategoryBasic, 0, issue(IssueError, CategoryBasic,
			"Meta description is missing",
			metaNameTag("description", "Your page description here"),
			"Add a unique meta description to every page. Search engines often display this in results."))
	}

	switch n := utf8.RuneCountInString(a.Description); {
	case n >= descriptionMinLength && n <= descriptionMaxLength:
		return single(CategoryBasic, 50, issue(IssueSuccess, CategoryBasic,
			"Meta description is present and optimal length",
			metaNameTag("description", truncate(a.Description)), ""))
	case n < descriptionMinLength:
		return single(CategoryBasic, 30, issue(IssueWarning, CategoryBasic,
			"Meta description is too short",
			metaNameTag("description", a.Description),
			"Aim for 120-160 characters to maximize visibility in search results."))
	default:
		return single(CategoryBasic, 30, issue(IssueWarning, CategoryBasic,
			"Meta description is too long",
			metaNameTag("description", truncate(a.Description)),
			"Keep meta descriptions between 120-160 characters to avoid truncation."))
	}
}

func ogTitleRule(a *SEOAnalysis) outcome {
	if a.OGTitle == "" {
		return single(CategoryOpenGraph, 0, issue(IssueWarning, CategoryOpenGraph,
			"og:title is missing",
			metaPropertyTag("og:title", "Your Title"),
			"Add Open Graph title for better social media sharing on Facebook and LinkedIn."))
	}
	return single(CategoryOpenGraph, 33, issue(IssueSuccess, CategoryOpenGraph,
		"og:title is present", metaPropertyTag("og:title", a.OGTitle), ""))
}

func ogDescriptionRule(a *SEOAnalysis) outcome {
	if a.OGDescription == "" {
		return single(CategoryOpenGraph, 0, issue(IssueWarning, CategoryOpenGraph,
			"og:description is missing",
			metaPropertyTag("og:description", "Your description"),
			"Add Open Graph description for better context when shared on social media."))
	}
	return single(CategoryOpenGraph, 33, issue(IssueSuccess, CategoryOpenGraph,
		"og:description is present", metaPropertyTag("og:description", truncate(a.OGDescription)), ""))
}

func ogImageRule(a *SEOAnalysis) outcome {
	if a.OGImage == "" {
		return single(CategoryOpenGraph, 0, issue(IssueError, CategoryOpenGraph,
			"og:image is missing",
			metaPropertyTag("og:image", "https://example.com/image.jpg"),
			"Add an Open Graph image (1200x630px recommended) for visual appeal when shared on social media."))
	}
	return single(CategoryOpenGraph, 34, issue(IssueSuccess, CategoryOpenGraph,
		"og:image is present", metaPropertyTag("og:image", a.OGImage), ""))
}

func twitterCardRule(a *SEOAnalysis) outcome {
	switch {
	case a.TwitterCard != "":
		return single(CategoryTwitter, 40, issue(IssueSuccess, CategoryTwitter,
			"twitter:card is specified", metaNameTag("twitter:card", a.TwitterCard), ""))
	case a.OGImage != "":
		return single(CategoryTwitter, 20, issue(IssueInfo, CategoryTwitter,
			"twitter:card not specified, but Open Graph tags will be used as fallback", "",
			"While Twitter will use og: tags as fallback, adding dedicated twitter:card provides better control."))
	default:
		return single(CategoryTwitter, 0, issue(IssueWarning, CategoryTwitter,
			"twitter:card is not specified",
			metaNameTag("twitter:card", "summary_large_image"),
			`Specify a Twitter card type. Use "summary_large_image" for rich media content.`))
	}
}

// twitterTitleRule credits the og:title fallback silently.
func twitterTitleRule(a *SEOAnalysis) outcome {
	out := outcome{category: CategoryTwitter}
	if a.TwitterTitle != "" || a.OGTitle != "" {
		out.points = 30
	}
	if a.TwitterTitle != "" {
		out.issues = []SEOIssue{issue(IssueSuccess, CategoryTwitter,
			"twitter:title is present", metaNameTag("twitter:title", a.TwitterTitle), "")}
	}
	return out
}

func twitterDescriptionRule(a *SEOAnalysis) outcome {
	out := outcome{category: CategoryTwitter}
	if a.TwitterDescription != "" || a.OGDescription != "" {
		out.points = 30
	}
	if a.TwitterDescription != "" {
		out.issues = []SEOIssue{issue(IssueSuccess, CategoryTwitter,
			"twitter:description is present", metaNameTag("twitter:description", a.TwitterDescription), "")}
	}
	return out
}

func viewportRule(a *SEOAnalysis) outcome {
	if a.Viewport == "" {
		return single(CategoryTechnical, 0, issue(IssueError, CategoryTechnical,
			"Viewport meta tag is missing",
			metaNameTag("viewport", "width=device-width, initial-scale=1"),
			"Add viewport meta tag for proper mobile rendering. This is essential for mobile SEO."))
	}
	return single(CategoryTechnical, 40, issue(IssueSuccess, CategoryTechnical,
		"Viewport meta tag is properly configured", metaNameTag("viewport", a.Viewport), ""))
}

func canonicalRule(a *SEOAnalysis) outcome {
	if a.Canonical == "" {
		return single(CategoryTechnical, 0, issue(IssueInfo, CategoryTechnical,
			"Canonical URL is not specified",
			`<link rel="canonical" href="https://example.com/page">`,
			"Add canonical URL to avoid duplicate content issues, especially if you have URL parameters."))
	}
	return single(CategoryTechnical, 30, issue(IssueSuccess, CategoryTechnical,
		"Canonical URL is specified", fmt.Sprintf(`<link rel="canonical" href="%s">`, a.Canonical), ""))
}

func robotsRule(a *SEOAnalysis) outcome {
	if a.Robots == "" {
		return single(CategoryTechnical, 0, issue(IssueInfo, CategoryTechnical,
			"Robots meta tag is not specified (default: index, follow)", "",
			"If default behavior is desired, no action needed. Otherwise, specify crawling directives."))
	}
	return single(CategoryTechnical, 30, issue(IssueSuccess, CategoryTechnical,
		"Robots meta tag is specified", metaNameTag("robots", a.Robots), ""))
}
