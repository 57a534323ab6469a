package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockLens/internal/model"
	"StockLens/internal/ranking"
)

// HelpText lists the bot commands.
const HelpText = "利用可能なコマンド:\n• /report SYMBOL (例: /report AAPL, /report 7203)\n• /ranking"

func formatPrice(p float64, c model.Currency) string {
	if c == model.JPY {
		return "¥" + humanize.CommafWithDigits(p, 0)
	}
	return "$" + humanize.CommafWithDigits(p, 2)
}

// FormatReport formats one analysis report into a Telegram message.
func FormatReport(rep model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s) | %s\n\n", html.EscapeString(rep.Symbol), rep.Currency, time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("株価: %s\n", formatPrice(rep.LastPrice, rep.Currency)))
	if rep.MarketCapUSD > 0 {
		b.WriteString(fmt.Sprintf("時価総額: $%sB\n", humanize.CommafWithDigits(rep.MarketCapUSD/1e9, 1)))
	}
	if st := rep.Stats; st != nil {
		b.WriteString(fmt.Sprintf("期間高値: %s (%s) | 安値: %s (%s) | 値幅 %.1f%%\n",
			formatPrice(st.MaxPrice, rep.Currency), st.MaxDate.Format("2006-01-02"),
			formatPrice(st.MinPrice, rep.Currency), st.MinDate.Format("2006-01-02"),
			st.PriceRangePercent))
	}

	cs := rep.CompositeScore
	b.WriteString(fmt.Sprintf("\n🚀 <b>成長スコア:</b> %s %d/100\n", cs.Rating.Symbol(), cs.NumericScore))
	for _, line := range cs.Rationale {
		b.WriteString("  " + html.EscapeString(line) + "\n")
	}

	lt := rep.LongTermSuitability
	b.WriteString(fmt.Sprintf("\n🏛 <b>長期適性:</b> %s (◎%d / 〇以上%d)\n", lt.Rating.Symbol(), lt.ExcellentCount, lt.GoodOrBetterCount))
	if len(lt.HardFailFactors) > 0 {
		b.WriteString(fmt.Sprintf("  不合格: %s\n", strings.Join(lt.HardFailFactors, ", ")))
	}

	b.WriteString("\n📋 <b>スクリーニング:</b>\n  ")
	cells := make([]string, 0, len(model.ScreeningFactors))
	for _, f := range model.ScreeningFactors {
		cells = append(cells, f+rep.ScreeningResults[f].Symbol())
	}
	b.WriteString(strings.Join(cells, " ") + "\n")

	for _, w := range rep.Warnings {
		b.WriteString("\n⚠️ " + html.EscapeString(w))
	}
	return b.String()
}

// DigestEntry is one watchlist line: a report or the reason it is missing.
type DigestEntry struct {
	Symbol string
	Report *model.Report
	Err    error
}

// FormatDigest formats the watchlist summary.
func FormatDigest(entries []DigestEntry, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗞 <b>ウォッチリスト</b> | %s\n\n", at.Format("2006-01-02 15:04")))
	for _, e := range entries {
		if e.Report == nil {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", html.EscapeString(e.Symbol), html.EscapeString(fmt.Sprint(e.Err))))
			continue
		}
		r := e.Report
		b.WriteString(fmt.Sprintf("%s %s  成長 %s%d  長期 %s\n",
			html.EscapeString(r.Symbol), formatPrice(r.LastPrice, r.Currency),
			r.CompositeScore.Rating.Symbol(), r.CompositeScore.NumericScore,
			r.LongTermSuitability.Rating.Symbol()))
	}
	return b.String()
}

// FormatRanking formats the sector ranking.
func FormatRanking(res *ranking.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>セクターランキング</b> (%d日) | %s\n\n", res.LookbackDays, humanize.Time(res.GeneratedAt)))
	for _, s := range res.Sectors {
		b.WriteString(fmt.Sprintf("%d. %s %+.1f%% (%d銘柄)\n", s.Rank, html.EscapeString(s.Sector), s.MeanReturn, len(s.Symbols)))
	}
	if len(res.Skipped) > 0 {
		syms := make([]string, len(res.Skipped))
		for i, sk := range res.Skipped {
			syms[i] = sk.Symbol
		}
		b.WriteString(fmt.Sprintf("\nスキップ: %s\n", html.EscapeString(strings.Join(syms, ", "))))
	}
	return b.String()
}
