package app

import (
	"time"

	"go.uber.org/zap"
)

// TradesSummary holds the outcome counts and PnL totals derived from the
// trade log.
type TradesSummary struct {
	Wins     int
	Losses   int
	Open     int
	TotalPnl float64
	DailyPnl float64
}

func (s TradesSummary) asMap() map[string]any {
	return map[string]any{
		"wins":      s.Wins,
		"losses":    s.Losses,
		"open":      s.Open,
		"total_pnl": s.TotalPnl,
		"daily_pnl": s.DailyPnl,
	}
}

// summarizeTrades tallies trade records. Daily PnL covers the 24 hours
// before now; records without a pnl field contribute zero.
func summarizeTrades(trades []map[string]any, now time.Time) TradesSummary {
	var sum TradesSummary
	dayStart := float64(now.Unix()) - 24*60*60
	for _, t := range trades {
		switch t["outcome"] {
		case "converged":
			sum.Wins++
		case "adverse":
			sum.Losses++
		case "open":
			sum.Open++
		}
		pnl := numOr0(t, "pnl")
		sum.TotalPnl += pnl
		if numOr0(t, "timestamp") >= dayStart {
			sum.DailyPnl += pnl
		}
	}
	sum.TotalPnl = round2(sum.TotalPnl)
	sum.DailyPnl = round2(sum.DailyPnl)
	return sum
}

// Enricher fills the gaps the bot leaves in its status snapshot: seed
// capital from the PnL config, win/loss tallies from the trade log, and a
// balance-derived total when the bot reports a balance but no PnL.
type Enricher struct {
	logger  *zap.Logger
	store   *Store
	enabled bool
}

func NewEnricher(logger *zap.Logger, store *Store, enabled bool) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{logger: logger, store: store, enabled: enabled}
}

// Enrich returns an augmented copy of status. The input map is never
// mutated, and enriching an already-enriched snapshot yields the same
// result. When enrichment is disabled the snapshot passes through as-is.
func (e *Enricher) Enrich(status map[string]any) map[string]any {
	if status == nil {
		status = map[string]any{}
	}
	if !e.enabled {
		return status
	}

	out := make(map[string]any, len(status)+2)
	for k, v := range status {
		out[k] = v
	}

	seed := e.store.SeedUSD()
	if !truthy(out["seed"]) && seed > 0 {
		out["seed"] = seed
	}

	trades := e.store.Trades()
	var computed TradesSummary
	if len(trades) > 0 {
		computed = summarizeTrades(trades, time.Now())
		existing := tradesBlock(out)
		// A snapshot that already carries win/loss counts is trusted;
		// otherwise the trade log is the source of truth.
		if !truthy(existing["wins"]) && !truthy(existing["losses"]) {
			merged := make(map[string]any, len(existing)+8)
			for k, v := range existing {
				merged[k] = v
			}
			for k, v := range computed.asMap() {
				merged[k] = v
			}
			if _, ok := existing["session_pnl"]; !ok {
				merged["session_pnl"] = computed.TotalPnl
			}
			if _, ok := existing["avg_edge"]; !ok {
				merged["avg_edge"] = 0.0
			}
			if _, ok := existing["avg_latency_ms"]; !ok {
				merged["avg_latency_ms"] = 0.0
			}
			out["trades"] = merged
		}
	}

	balance := numOr0(out, "balance")
	seedVal := seed
	if v, ok := out["seed"]; ok {
		seedVal = toNum(v)
	}

	// A positive balance beats trade-log summation: the bot's own account
	// figure already nets out fees and partial fills.
	if balance > 0 && seedVal > 0 {
		block := tradesBlock(out)
		if !truthy(block["total_pnl"]) {
			block["total_pnl"] = round2(balance - seedVal)
			out["trades"] = block
		}
	}

	// A zero balance with trades on record means the bot has not reported
	// an account figure yet; reconstruct it from seed plus realized PnL.
	if balance == 0 && seedVal > 0 && len(trades) > 0 {
		block := tradesBlock(out)
		if numOr0(block, "total_pnl") == 0 {
			block["total_pnl"] = computed.TotalPnl
		}
		out["balance"] = seedVal + numOr0(block, "total_pnl")
		out["trades"] = block
	}

	return out
}

// tradesBlock returns a copy of the status trades object, or an empty map
// when the snapshot has none.
func tradesBlock(status map[string]any) map[string]any {
	block := make(map[string]any)
	if m, ok := status["trades"].(map[string]any); ok {
		for k, v := range m {
			block[k] = v
		}
	}
	return block
}
