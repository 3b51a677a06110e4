// Package report renders collected website stats as a Telegram HTML message.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/metrics"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
)

// Icons are part of the message format that readers and filters rely on.
const (
	IconReport   = "📊"
	IconClock    = "⏰"
	IconPeriod   = "📅"
	IconViews    = "\U0001F441\uFE0F"
	IconVisitors = "👤"
	IconVisits   = "🔄"
	IconBounce   = "📉"
	IconDuration = "\u23F1\uFE0F"
	IconWarning  = "\u26A0\uFE0F"
	IconSummary  = "📈"
)

const (
	Title         = "Umami Statistics Report"
	Last24Hours   = "Last 24 Hours"
	timestampFmt  = "2006-01-02 15:04:05"
	rangeFmt      = "01/02 15:04"
	maxDailySpanH = 24.1
)

var utc8 = time.FixedZone("UTC+8", 8*3600)

type Formatter struct {
	Now func() time.Time
	// Location is used for the explicit period range.
	Location *time.Location
}

func NewFormatter() *Formatter {
	return &Formatter{
		Now:      time.Now,
		Location: time.Local,
	}
}

// Format renders the report. A summary section is added when there is more
// than one site; failed sites count as zero in it.
func (f *Formatter) Format(results []metrics.SiteResult, window *timerange.Window) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s <b>%s</b>\n", IconReport, Title)
	fmt.Fprintf(&b, "%s %s UTC+8\n", IconClock, f.Now().In(utc8).Format(timestampFmt))
	fmt.Fprintf(&b, "%s %s\n", IconPeriod, f.Period(window))
	b.WriteString("\n")

	for _, r := range results {
		writeSite(&b, r)
	}

	if len(results) > 1 {
		writeSummary(&b, Totals(results))
	}

	return b.String()
}

// Period describes the window. Only a window given as epoch timestamps and
// spanning more than a day is shown as an explicit range.
func (f *Formatter) Period(window *timerange.Window) string {
	if window == nil || !window.Epoch {
		return Last24Hours
	}

	if window.Duration().Hours() <= maxDailySpanH {
		return Last24Hours
	}

	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("%s - %s",
		window.Start().In(loc).Format(rangeFmt),
		window.End().In(loc).Format(rangeFmt),
	)
}

func writeSite(b *strings.Builder, r metrics.SiteResult) {
	fmt.Fprintf(b, "<b>%s</b>\n", html.EscapeString(r.Site.Label))

	if !r.OK() {
		fmt.Fprintf(b, "%s Failed to fetch data\n\n", IconWarning)
		return
	}

	s := r.Stats
	fmt.Fprintf(b, "%s Views: %s\n", IconViews, humanize.Comma(s.Pageviews))
	fmt.Fprintf(b, "%s Visitors: %s\n", IconVisitors, humanize.Comma(s.Visitors))
	fmt.Fprintf(b, "%s Visits: %s\n", IconVisits, humanize.Comma(s.Visits))

	if rate, ok := BounceRate(s.Bounces, s.Visits); ok {
		fmt.Fprintf(b, "%s Bounce Rate: %.1f%%\n", IconBounce, rate)
	}
	if avg, ok := AverageDuration(s.TotalTime, s.Visits); ok {
		fmt.Fprintf(b, "%s Avg Time: %s\n", IconDuration, avg)
	}

	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, t metrics.SiteStats) {
	fmt.Fprintf(b, "\n<b>%s Summary</b>\n", IconSummary)
	fmt.Fprintf(b, "%s  Total Views: %s\n", IconViews, humanize.Comma(t.Pageviews))
	fmt.Fprintf(b, "%s  Total Visitors: %s\n", IconVisitors, humanize.Comma(t.Visitors))
	fmt.Fprintf(b, "%s  Total Visits: %s\n", IconVisits, humanize.Comma(t.Visits))

	if rate, ok := BounceRate(t.Bounces, t.Visits); ok {
		fmt.Fprintf(b, "%s  Avg Bounce Rate: %.1f%%\n", IconBounce, rate)
	}
	if avg, ok := AverageDuration(t.TotalTime, t.Visits); ok {
		fmt.Fprintf(b, "%s  Avg Visit Duration: %s\n", IconDuration, avg)
	}
}

// Totals sums the stats of every site that returned data.
func Totals(results []metrics.SiteResult) metrics.SiteStats {
	var total metrics.SiteStats
	for _, r := range results {
		if r.OK() {
			total = total.Add(*r.Stats)
		}
	}
	return total
}

// BounceRate returns bounces per visit as a percentage; ok is false without visits.
func BounceRate(bounces, visits int64) (float64, bool) {
	if visits <= 0 {
		return 0, false
	}
	return float64(bounces) / float64(visits) * 100, true
}

// AverageDuration formats the floored mean visit length as "Xm Ys" or "Ys".
func AverageDuration(totalSeconds, visits int64) (string, bool) {
	if totalSeconds <= 0 || visits <= 0 {
		return "", false
	}
	return FormatDuration(totalSeconds / visits), true
}

func FormatDuration(seconds int64) string {
	minutes, secs := seconds/60, seconds%60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
