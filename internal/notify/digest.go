package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// FormatDigest renders the focus picks of snap as a short plain-text message.
func FormatDigest(snap *domain.Snapshot) (title, body string) {
	window := snap.Focus.WindowHours
	if window == 0 {
		window = snap.MaxHours
	}
	title = fmt.Sprintf("Focus markets closing within %gh", window)

	var b strings.Builder
	writePick(&b, "Crypto", snap.Focus.Crypto)
	writePick(&b, "Sports", snap.Focus.Sports)
	fmt.Fprintf(&b, "%d candidates from %d markets", snap.Stats.Candidates, snap.Stats.TotalFetched)
	return title, b.String()
}

func writePick(b *strings.Builder, label string, rec *domain.MarketRecord) {
	if rec == nil {
		fmt.Fprintf(b, "%s: none\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, rec.Question())
	fmt.Fprintf(b, "  YES %s / NO %s", formatPrice(rec.YesPrice()), formatPrice(rec.NoPrice()))
	if h, ok := rec.HoursToClose(); ok {
		fmt.Fprintf(b, ", closes in %.1fh", h)
	}
	b.WriteString("\n")
}

func formatPrice(p float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f¢", p*100)
}
