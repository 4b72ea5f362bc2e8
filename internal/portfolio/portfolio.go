// Package portfolio implements the virtual portfolio: the path-dependent
// simulation state mutated bar-by-bar by one strategy executor during one
// backtest run. A portfolio instance is owned by a single run and mutated
// sequentially; it is not safe for concurrent use.
package portfolio

import (
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VirtualPortfolio is an in-memory ledger of cash, share position, trade log,
// and recorded portfolio values. Invariants: cash >= 0 and shares >= 0 after
// every call; orders that would violate them are rejected without any state
// change.
type VirtualPortfolio struct {
	initialCapital  float64
	cash            float64
	shares          int64
	trades          []types.Trade
	portfolioValues []float64
	dailyReturns    []float64
	log             *logger.Logger
}

// New creates a fresh portfolio holding only cash. The value series is
// seeded with the initial capital.
func New(initialCapital float64, log *logger.Logger) *VirtualPortfolio {
	return &VirtualPortfolio{
		initialCapital:  initialCapital,
		cash:            initialCapital,
		shares:          0,
		trades:          nil,
		portfolioValues: []float64{initialCapital},
		dailyReturns:    nil,
		log:             log,
	}
}

// Buy purchases shares at the given price. When shares is None, it invests
// all available cash (floor(cash / price) shares). Returns false without any
// state change when the order is not feasible: the cost exceeds available
// cash, or the computed share count is zero.
func (p *VirtualPortfolio) Buy(price float64, date types.Date, shares optional.Option[int64]) bool {
	qty := shares.TakeOr(int64(p.cash / price))
	if qty <= 0 {
		p.log.Warn("Buy rejected: zero shares",
			zap.Float64("price", price),
			zap.Float64("cash", p.cash),
		)

		return false
	}

	cost, _ := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty)).Float64()
	if cost > p.cash {
		p.log.Warn("Buy rejected: insufficient funds",
			zap.Float64("cash", p.cash),
			zap.Float64("cost", cost),
		)

		return false
	}

	p.cash -= cost
	p.shares += qty

	p.trades = append(p.trades, types.Trade{
		Date:   date,
		Action: types.TradeActionBuy,
		Shares: qty,
		Price:  price,
		Value:  cost,
		Profit: 0,
	})

	p.log.Info("Buy executed",
		zap.Int64("shares", qty),
		zap.Float64("price", price),
		zap.String("date", date.Format(types.DateLayout)),
	)

	return true
}

// Sell sells shares at the given price. When shares is None, it closes the
// entire position. Returns false without any state change when more shares
// are requested than held, or when there is nothing to sell.
//
// Profit is attributed against the most recent BUY trade's price (0 if no
// prior BUY exists). This is exact only while the portfolio never holds
// multiple overlapping lots, which holds for every strategy in this module;
// a multi-lot strategy would need FIFO/LIFO lot matching instead.
func (p *VirtualPortfolio) Sell(price float64, date types.Date, shares optional.Option[int64]) bool {
	qty := shares.TakeOr(p.shares)
	if qty <= 0 {
		p.log.Warn("Sell rejected: zero shares",
			zap.Int64("owned", p.shares),
		)

		return false
	}

	if qty > p.shares {
		p.log.Warn("Sell rejected: insufficient shares",
			zap.Int64("owned", p.shares),
			zap.Int64("requested", qty),
		)

		return false
	}

	qtyDec := decimal.NewFromInt(qty)
	revenue, _ := decimal.NewFromFloat(price).Mul(qtyDec).Float64()

	profit := 0.0
	if buyPrice, ok := p.lastBuyPrice(); ok {
		profit, _ = decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(buyPrice)).Mul(qtyDec).Float64()
	}

	p.cash += revenue
	p.shares -= qty

	p.trades = append(p.trades, types.Trade{
		Date:   date,
		Action: types.TradeActionSell,
		Shares: qty,
		Price:  price,
		Value:  revenue,
		Profit: profit,
	})

	p.log.Info("Sell executed",
		zap.Int64("shares", qty),
		zap.Float64("price", price),
		zap.Float64("profit", profit),
		zap.String("date", date.Format(types.DateLayout)),
	)

	return true
}

// TotalValue returns cash plus the position marked at the current price.
func (p *VirtualPortfolio) TotalValue(currentPrice float64) float64 {
	return p.cash + float64(p.shares)*currentPrice
}

// RecordValue appends the current total value to the value series and, when
// a previous value exists, the period return to the daily-return series.
// len(DailyReturns()) == len(PortfolioValues()) - 1 holds at all times.
func (p *VirtualPortfolio) RecordValue(currentPrice float64) {
	totalValue := p.TotalValue(currentPrice)
	p.portfolioValues = append(p.portfolioValues, totalValue)

	prevValue := p.portfolioValues[len(p.portfolioValues)-2]
	p.dailyReturns = append(p.dailyReturns, (totalValue-prevValue)/prevValue)
}

// InitialCapital returns the capital the portfolio was constructed with.
func (p *VirtualPortfolio) InitialCapital() float64 {
	return p.initialCapital
}

// Cash returns the current cash balance.
func (p *VirtualPortfolio) Cash() float64 {
	return p.cash
}

// Shares returns the current share position.
func (p *VirtualPortfolio) Shares() int64 {
	return p.shares
}

// Trades returns the append-only trade log.
func (p *VirtualPortfolio) Trades() []types.Trade {
	return p.trades
}

// PortfolioValues returns the recorded total-value series, seeded with the
// initial capital.
func (p *VirtualPortfolio) PortfolioValues() []float64 {
	return p.portfolioValues
}

// DailyReturns returns the period-return series derived from recorded values.
func (p *VirtualPortfolio) DailyReturns() []float64 {
	return p.dailyReturns
}

func (p *VirtualPortfolio) lastBuyPrice() (float64, bool) {
	for i := len(p.trades) - 1; i >= 0; i-- {
		if p.trades[i].Action == types.TradeActionBuy {
			return p.trades[i].Price, true
		}
	}

	return 0, false
}
