package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/usecase"
)

// UI styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	symbolStyle = lipgloss.NewStyle().Width(10)

	pctStyle = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)

	gainStyle = pctStyle.
			Foreground(lipgloss.Color("#10B981"))

	lossStyle = pctStyle.
			Foreground(lipgloss.Color("#EF4444"))

	dateStyle = lipgloss.NewStyle().PaddingLeft(2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

// renderRecords formats records as a table, one row per record.
func renderRecords(records []entity.Record) string {
	if len(records) == 0 {
		return mutedStyle.Render("no rows") + "\n"
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		symbolStyle.Inherit(headerStyle).Render("SYMBOL"),
		pctStyle.Inherit(headerStyle).Render("CHANGE"),
		dateStyle.Inherit(headerStyle).Render("OBSERVED (UTC)"),
	))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			symbolStyle.Render(r.Symbol),
			percentStyle(r.Percentage).Render(formatPercent(r.Percentage)),
			dateStyle.Render(r.Date.UTC().Format(time.DateTime)),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// renderIngestResult summarises one scrape run.
func renderIngestResult(res usecase.IngestResult, dryRun bool) string {
	if res.Skipped {
		return mutedStyle.Render(fmt.Sprintf("%s is not a trading day; nothing scraped (use --force to override)",
			res.ObservedAt.Format(time.DateOnly))) + "\n"
	}

	lines := []string{
		fmt.Sprintf("observed at  %s", res.ObservedAt.Format(time.RFC3339)),
		fmt.Sprintf("scraped      %d", res.Scraped),
		fmt.Sprintf("invalid      %d", res.Invalid),
	}
	if dryRun {
		lines = append(lines, "dry run      nothing written")
	} else {
		lines = append(lines,
			fmt.Sprintf("inserted     %d", res.Inserted),
			fmt.Sprintf("duplicates   %d", res.Duplicates),
		)
	}
	return summaryStyle.Render(strings.Join(lines, "\n")) + "\n" + renderRecords(res.Records)
}

func percentStyle(p float64) lipgloss.Style {
	switch {
	case p > 0:
		return gainStyle
	case p < 0:
		return lossStyle
	default:
		return pctStyle
	}
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}
