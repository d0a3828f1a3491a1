package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// MarkdownWriter writes one section per entry in GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders every entry and separates them with a horizontal rule.
func (w *MarkdownWriter) Write(entries []Entry) error {
	md := markdown.NewMarkdown(w.output)

	for i, e := range entries {
		if i > 0 {
			md.HorizontalRule()
			md.PlainText("")
		}
		if e.Err != nil {
			writeFailure(md, e)
			continue
		}
		writeResult(md, e.Result)
	}

	return md.Build()
}

func writeFailure(md *markdown.Markdown, e Entry) {
	md.H1("SEO Report: " + e.URL)
	md.PlainText("")
	md.Cautionf("Analysis failed (%s): %s", analyzer.KindOf(e.Err), e.Err.Error())
	md.PlainText("")
}

func writeResult(md *markdown.Markdown, res *analyzer.Result) {
	md.H1("SEO Report: " + res.Analysis.URL)
	md.PlainText("")

	writeScores(md, res.Score)
	writeAlert(md, res.Score.Overall)
	writeDistribution(md, res)
	writeTags(md, res.Analysis)
	writeIssues(md, res.Issues)
}

func writeScores(md *markdown.Markdown, score analyzer.SEOScore) {
	md.H2("Scores")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score"},
		Rows: [][]string{
			{string(analyzer.CategoryBasic), strconv.Itoa(score.Categories.Basic)},
			{string(analyzer.CategoryOpenGraph), strconv.Itoa(score.Categories.OpenGraph)},
			{string(analyzer.CategoryTwitter), strconv.Itoa(score.Categories.Twitter)},
			{string(analyzer.CategoryTechnical), strconv.Itoa(score.Categories.Technical)},
			{"**Overall**", "**" + strconv.Itoa(score.Overall) + "**"},
		},
	})
	md.PlainText("")
}

func writeAlert(md *markdown.Markdown, overall int) {
	switch {
	case overall >= 80:
		md.Tip("Metadata is in good shape.")
	case overall >= 50:
		md.Note("Metadata is usable but several tags can be improved.")
	default:
		md.Warningf("Overall score is %d. Important metadata is missing or malformed.", overall)
	}
	md.PlainText("")
}

func writeDistribution(md *markdown.Markdown, res *analyzer.Result) {
	if len(res.Issues) == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issues by Type"),
		piechart.WithShowData(true),
	)
	counts := res.Counts()
	for _, t := range []analyzer.IssueType{analyzer.IssueError, analyzer.IssueWarning, analyzer.IssueInfo, analyzer.IssueSuccess} {
		if n := counts[t]; n > 0 {
			chart.LabelAndIntValue(string(t), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeTags(md *markdown.Markdown, a analyzer.SEOAnalysis) {
	md.H2("Extracted Tags")
	md.PlainText("")

	fields := []struct{ name, value string }{
		{"title", a.Title},
		{"description", a.Description},
		{"og:title", a.OGTitle},
		{"og:description", a.OGDescription},
		{"og:image", a.OGImage},
		{"og:type", a.OGType},
		{"twitter:card", a.TwitterCard},
		{"twitter:title", a.TwitterTitle},
		{"twitter:description", a.TwitterDescription},
		{"twitter:image", a.TwitterImage},
		{"canonical", a.Canonical},
		{"robots", a.Robots},
		{"viewport", a.Viewport},
	}

	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		value := "-"
		if f.value != "" {
			value = cell(f.value)
		}
		rows = append(rows, []string{f.name, value})
	}
	md.Table(markdown.TableSet{Header: []string{"Tag", "Value"}, Rows: rows})
	md.PlainText("")
}

func writeIssues(md *markdown.Markdown, issues []analyzer.SEOIssue) {
	for _, cat := range analyzer.Categories {
		var rows [][]string
		for _, i := range issues {
			if i.Category != cat {
				continue
			}
			tag := "-"
			if i.Tag != "" {
				tag = "`" + cell(i.Tag) + "`"
			}
			rec := "-"
			if i.Recommendation != "" {
				rec = cell(i.Recommendation)
			}
			rows = append(rows, []string{icon(i.Type), cell(i.Message), tag, rec})
		}
		if len(rows) == 0 {
			continue
		}

		md.H2(string(cat))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Type", "Message", "Tag", "Recommendation"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func icon(t analyzer.IssueType) string {
	switch t {
	case analyzer.IssueError:
		return "❌"
	case analyzer.IssueWarning:
		return "⚠️"
	case analyzer.IssueSuccess:
		return "✅"
	case analyzer.IssueInfo:
		return "ℹ️"
	default:
		return "-"
	}
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
