package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
)

var leaningStyles = map[models.Leaning]color.Style{
	models.LeaningPositive: color.New(color.FgGreen),
	models.LeaningNeutral:  color.New(color.FgYellow),
	models.LeaningNegative: color.New(color.FgRed),
}

var ratingStyles = map[models.Rating]color.Style{
	sentiment.RatingExcellent: color.New(color.FgGreen, color.OpBold),
	sentiment.RatingGood:      color.New(color.FgGreen),
	sentiment.RatingAverage:   color.New(color.FgYellow),
	sentiment.RatingPoor:      color.New(color.FgRed, color.OpBold),
}

type printer struct {
	w       io.Writer
	colored bool
	scheme  sentiment.Scheme
}

func newPrinter(w io.Writer, colored bool, scheme sentiment.Scheme) *printer {
	return &printer{w: w, colored: colored, scheme: scheme}
}

func (p *printer) paint(style color.Style, s string) string {
	if !p.colored {
		return s
	}
	return style.Render(s)
}

func (p *printer) label(label models.Label) string {
	return p.paint(leaningStyles[p.scheme.Leaning(label)], string(label))
}

func (p *printer) Report(report *models.Report, rejected int) {
	title := "Sentiment Distribution"
	if report.Entity != "" {
		title += " for " + report.Entity
	}
	fmt.Fprintln(p.w, p.paint(color.New(color.OpBold), title))
	fmt.Fprintf(p.w, "Total tweets: %d", report.Summary.Total)
	if rejected > 0 {
		fmt.Fprintf(p.w, " (%d rows without text skipped)", rejected)
	}
	fmt.Fprintln(p.w)

	if report.Summary.Rating != "" {
		fmt.Fprintf(p.w, "Overall rating: %s\n", p.paint(ratingStyles[report.Summary.Rating], string(report.Summary.Rating)))
	}
	fmt.Fprintln(p.w)

	table := p.newTable([]string{"Sentiment", "Count", "Percent"})
	for _, label := range report.Summary.Labels {
		table.Append([]string{
			p.label(label),
			strconv.Itoa(report.Summary.Counts[label]),
			fmt.Sprintf("%.1f%%", report.Summary.Percentages[label]),
		})
	}
	table.Render()

	p.keywords("Most common words in positive tweets", report.PositiveKeywords)
	p.keywords("Most common words in negative tweets", report.NegativeKeywords)
	if len(report.Keywords) > 0 {
		p.keywords("Most common words", report.Keywords)
	}
}

func (p *printer) keywords(title string, words []models.KeywordCount) {
	fmt.Fprintf(p.w, "\n%s:\n", title)
	if len(words) == 0 {
		fmt.Fprintln(p.w, "  (none)")
		return
	}

	table := p.newTable([]string{"Word", "Count"})
	for _, kw := range words {
		table.Append([]string{kw.Word, strconv.Itoa(kw.Count)})
	}
	table.Render()
}

func (p *printer) Records(records []models.LabeledRecord) {
	fmt.Fprintln(p.w, "\nDetailed tweet data:")

	table := p.newTable([]string{"Row", "Sentiment", "Polarity", "Text"})
	for _, r := range records {
		table.Append([]string{
			strconv.Itoa(r.Row),
			p.label(r.Label),
			fmt.Sprintf("%.3f", r.Polarity),
			r.Text,
		})
	}
	table.Render()
}

func (p *printer) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
