// Package report renders dashboard snapshots as styled terminal text. It is
// shared by the interactive dashboard and the one-shot report mode.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
)

// Options controls what Render includes.
type Options struct {
	// ValidPricesOnly hides candidates missing either price.
	ValidPricesOnly bool
	// ShowDetails adds token IDs and the end date to the table.
	ShowDetails bool
	// MaxRows caps the table; 0 shows every row.
	MaxRows int
}

// NoMatches is shown instead of the table when nothing passes the filters.
const NoMatches = "No markets match the current filters."

// Render draws the header, stats line, focus cards and candidate table.
func Render(snap *domain.Snapshot, opts Options) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Polymarket markets closing within %gh", snap.MaxHours)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(StatsLine(snap)))
	b.WriteString("\n\n")
	b.WriteString(RenderFocus(snap.Focus))
	b.WriteString("\n\n")

	candidates := snap.Candidates
	if opts.ValidPricesOnly {
		candidates = market.FilterValidPrices(candidates)
	}
	if len(candidates) == 0 {
		b.WriteString(mutedStyle.Render(NoMatches))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(RenderTable(candidates, opts))
	return b.String()
}

// RenderError draws a fetch failure in place of the dashboard.
func RenderError(err error) string {
	return errorStyle.Render("Failed to fetch market data") + "\n" + mutedStyle.Render(err.Error()) + "\n"
}

// StatsLine summarises the cycle counters.
func StatsLine(snap *domain.Snapshot) string {
	s := snap.Stats
	return fmt.Sprintf("fetched %d · parsed %d · invalid %d · candidates %d · priced %d · %s",
		s.TotalFetched, s.Parsed, s.Invalid, s.Candidates, s.Priced,
		snap.GeneratedAt.Local().Format("15:04:05"))
}

// RenderFocus draws the crypto and sports cards side by side.
func RenderFocus(f domain.Focus) string {
	crypto := focusCard("Crypto focus", f.Crypto, f.WindowHours)
	sports := focusCard("Sports focus", f.Sports, f.WindowHours)
	return lipgloss.JoinHorizontal(lipgloss.Top, crypto, "  ", sports)
}

func focusCard(title string, rec *domain.MarketRecord, window float64) string {
	lines := []string{titleStyle.Render(title)}
	if rec == nil {
		lines = append(lines, mutedStyle.Render("No market in window"))
		return cardStyle.Render(strings.Join(lines, "\n"))
	}
	lines = append(lines,
		rec.Question(),
		fmt.Sprintf("%s  %s",
			yesStyle.Render("YES "+FormatPrice(rec.YesPrice())),
			noStyle.Render("NO "+FormatPrice(rec.NoPrice()))),
		mutedStyle.Render(fmt.Sprintf("closes in %s · window %gh", FormatHours(rec.HoursToClose()), window)),
	)
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// RenderTable draws one row per record.
func RenderTable(recs []*domain.MarketRecord, opts Options) string {
	if opts.MaxRows > 0 && len(recs) > opts.MaxRows {
		recs = recs[:opts.MaxRows]
	}

	headers := []string{"Question", "Category", "YES", "NO", "Closes in"}
	if opts.ShowDetails {
		headers = append(headers, "End date", "YES token", "NO token")
	}
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := []string{
			truncate(rec.Question(), 60),
			market.InferredCategory(rec),
			FormatPrice(rec.YesPrice()),
			FormatPrice(rec.NoPrice()),
			FormatHours(rec.HoursToClose()),
		}
		if opts.ShowDetails {
			row = append(row, rec.EndDate(), truncate(rec.YesTokenID(), 14), truncate(rec.NoTokenID(), 14))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(joinCells(headers, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(joinCells(row, widths))
		b.WriteString("\n")
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
	}
	return strings.Join(padded, "  ")
}

// FormatPrice renders a 0..1 price in cents, or "—" when missing.
func FormatPrice(p float64, ok bool) string {
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%.1f¢", p*100)
}

// FormatHours renders hours to close as "5.5h" or "3d 4h".
func FormatHours(h float64, ok bool) string {
	if !ok {
		return "—"
	}
	if h < 24 {
		return fmt.Sprintf("%.1fh", h)
	}
	days := int(h / 24)
	return fmt.Sprintf("%dd %dh", days, int(h)-days*24)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
