package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/pkg/events"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBrand   = lipgloss.Color("#8952FC")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6B7280")
)

var styles = struct {
	Title     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	Muted:     lipgloss.NewStyle().Foreground(colorMuted),
	Success:   lipgloss.NewStyle().Foreground(colorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(colorWarning),
	Error:     lipgloss.NewStyle().Foreground(colorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBrand).
		Padding(0, 1),
}

func printSuccess(msg string) { fmt.Println(styles.Success.Render("✓ " + msg)) }
func printWarning(msg string) { fmt.Println(styles.Warning.Render("! " + msg)) }
func printMuted(msg string)   { fmt.Println(styles.Muted.Render(msg)) }

func printError(err error) {
	fmt.Fprintln(os.Stderr, styles.Error.Render("✗ "+err.Error()))
}

func renderStatus(email string, res *dto.SubscriptionStatusResponse) string {
	lines := []string{
		styles.Title.Render("Subscription"),
		"Email:  " + email,
		"Status: " + res.Status,
	}
	if res.MonthlyPrice != nil {
		lines = append(lines, "Price:  "+entity.FormatCents(*res.MonthlyPrice)+"/month")
	}
	return styles.Box.Render(strings.Join(lines, "\n"))
}

func renderEvent(e events.BaseEvent) string {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Data[k]))
	}
	return fmt.Sprintf("%s %s %s",
		styles.Muted.Render(e.OccurredAt.Format("15:04:05")),
		styles.Highlight.Render(e.Type),
		strings.Join(parts, " "))
}

// discountedPrice is the price after the flat $10 downsell.
func discountedPrice(monthlyPrice *int) string {
	if monthlyPrice == nil {
		return ""
	}
	cents := *monthlyPrice - 1000
	if cents < 0 {
		cents = 0
	}
	return entity.FormatCents(cents)
}
