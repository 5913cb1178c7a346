package app

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptoPulseBot/internal/domain"
)

const (
	errorMessage   = "Error fetching data or calculating indicators."
	cooldownNotice = "⏳ Please wait a few seconds before requesting another report."
	maxZonesShown  = 5
)

// Formatter renders reports and alerts as chat messages.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a formatter printing timestamps in loc (UTC when nil).
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// FormatPrice rounds a price to a precision suited to its magnitude.
func FormatPrice(p float64) string {
	places := int32(2)
	switch a := math.Abs(p); {
	case a == 0:
	case a < 1:
		places = 6
	case a < 100:
		places = 4
	}
	return decimal.NewFromFloat(p).StringFixed(places)
}

func formatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Report renders the full market snapshot.
func (f *Formatter) Report(r *domain.Report) string {
	var b strings.Builder
	label := r.Label
	if label == "" {
		label = r.Interval
	}
	fmt.Fprintf(&b, "📊 Trend Confirmation (%s)\n", label)
	fmt.Fprintf(&b, "%s\n\n", r.Symbol)
	fmt.Fprintf(&b, "💰 Price: %s\n", FormatPrice(r.Price))
	fmt.Fprintf(&b, "🔥 Overall Trend: %s (%s)\n", r.Trend.Direction, formatPercent(r.Trend.ChangePercent))
	if r.Ticker != nil {
		fmt.Fprintf(&b, "🕒 24h Change: %s | High: %s | Low: %s\n",
			formatPercent(r.Ticker.PriceChangePercent), FormatPrice(r.Ticker.HighPrice), FormatPrice(r.Ticker.LowPrice))
	}
	fmt.Fprintf(&b, "📉 Next Support: %s\n", FormatPrice(r.RecentSupport))
	fmt.Fprintf(&b, "📈 Next Resistance: %s\n", FormatPrice(r.RecentResistance))
	fmt.Fprintf(&b, "😨 Fear & Greed Index: %s\n", sentimentText(r.Sentiment))
	rsi := decimal.NewFromFloat(r.Indicators.RSI).StringFixed(2)
	if r.Indicators.RSIState != "" {
		rsi += " (" + r.Indicators.RSIState + ")"
	}
	fmt.Fprintf(&b, "📐 RSI: %s | ADX: %s | MACD Hist: %s\n",
		rsi,
		decimal.NewFromFloat(r.Indicators.ADX).StringFixed(2),
		FormatPrice(r.Indicators.MACDHistogram))
	fmt.Fprintf(&b, "🎯 TP1: %s\n", FormatPrice(r.Targets.TP1))
	fmt.Fprintf(&b, "🎯 TP2: %s\n", FormatPrice(r.Targets.TP2))
	fmt.Fprintf(&b, "🛑 SL: %s\n", FormatPrice(r.Targets.SL))
	fmt.Fprintf(&b, "📈 Signal Accuracy: %s\n", formatPercent(r.Accuracy))
	fmt.Fprintf(&b, "📆 Date & Time: %s\n\n", r.GeneratedAt.In(f.loc).Format("2006-01-02 15:04:05 MST"))
	b.WriteString(zonesBlock(r.Price, r.Zones, r.Nearest))
	return b.String()
}

// Zones renders the zones-only reply.
func (f *Formatter) Zones(s *ZoneSnapshot, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧱 %s zones (%s)\n", s.Symbol, label)
	fmt.Fprintf(&b, "💰 Price: %s\n\n", FormatPrice(s.Price))
	b.WriteString(zonesBlock(s.Price, s.Zones, s.Nearest))
	return b.String()
}

// History renders the latest reports of a chat, newest first.
func (f *Formatter) History(reports []*domain.Report) string {
	if len(reports) == 0 {
		return "🗂 No reports yet. Try /help to get started."
	}
	var b strings.Builder
	b.WriteString("🗂 Recent reports\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "\n%s %s (%s) %s %s (%s)",
			r.GeneratedAt.In(f.loc).Format("2006-01-02 15:04"), r.Symbol, r.Interval,
			FormatPrice(r.Price), r.Trend.Direction, formatPercent(r.Trend.ChangePercent))
	}
	return b.String()
}

// Whale renders a large transfer alert.
func (f *Formatter) Whale(t *domain.WhaleTransfer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🐋 %s %s ($%s) transferred\n",
		decimal.NewFromFloat(t.Amount).StringFixed(2), strings.ToUpper(t.Symbol), decimal.NewFromFloat(t.AmountUSD).StringFixed(0))
	fmt.Fprintf(&b, "From: %s\nTo: %s\n", t.From, t.To)
	fmt.Fprintf(&b, "Chain: %s\n", t.Blockchain)
	if !t.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Time: %s\n", t.Timestamp.In(f.loc).Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Tx: %s", t.Hash)
	return b.String()
}

func sentimentText(s *domain.Sentiment) string {
	if s == nil {
		return "Unavailable"
	}
	return fmt.Sprintf("%d (%s)", s.Value, s.Classification)
}

func zonesBlock(price float64, zones []domain.Zone, nearest domain.NearestZones) string {
	var support, resistance []domain.Zone
	for _, z := range zones {
		if z.Kind == domain.ZoneSupport {
			support = append(support, z)
		} else {
			resistance = append(resistance, z)
		}
	}

	var b strings.Builder
	b.WriteString("🟢 Support zones: " + zoneList(price, support) + "\n")
	b.WriteString("🔴 Resistance zones: " + zoneList(price, resistance) + "\n")
	if nearest.Support != nil {
		fmt.Fprintf(&b, "⬇️ Nearest support: %s (-%s)\n", FormatPrice(nearest.Support.Price), formatPercent(nearest.DistToSupportPct))
	}
	if nearest.Resistance != nil {
		fmt.Fprintf(&b, "⬆️ Nearest resistance: %s (+%s)\n", FormatPrice(nearest.Resistance.Price), formatPercent(nearest.DistToResistPct))
	}
	return strings.TrimRight(b.String(), "\n")
}

// zoneList lists zones closest to price first.
func zoneList(price float64, zones []domain.Zone) string {
	if len(zones) == 0 {
		return "none"
	}
	sorted := append([]domain.Zone(nil), zones...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Price-price) < math.Abs(sorted[j].Price-price)
	})
	if len(sorted) > maxZonesShown {
		sorted = sorted[:maxZonesShown]
	}
	parts := make([]string, len(sorted))
	for i, z := range sorted {
		parts[i] = fmt.Sprintf("%s (%dx)", FormatPrice(z.Price), z.Touches)
	}
	return strings.Join(parts, ", ")
}
