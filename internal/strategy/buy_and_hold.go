package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/portfolio"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"go.uber.org/zap"
)

// BuyAndHold invests all capital at the first bar's close, records value for
// every subsequent bar, and closes the position at the last bar's close.
type BuyAndHold struct {
	log *logger.Logger
}

func NewBuyAndHold(log *logger.Logger) *BuyAndHold {
	return &BuyAndHold{log: log}
}

func (s *BuyAndHold) Name() Strategy {
	return StrategyBuyAndHold
}

func (s *BuyAndHold) Run(series types.PriceSeries, p *portfolio.VirtualPortfolio) error {
	if len(series) == 0 {
		return nil
	}

	first := series[0]
	p.Buy(first.Close, first.Date, optional.None[int64]())

	for i := 1; i < len(series); i++ {
		p.RecordValue(series[i].Close)
	}

	last := series[len(series)-1]
	p.Sell(last.Close, last.Date, optional.None[int64]())

	s.log.Debug("Buy-and-hold replay complete",
		zap.Int("bars", len(series)),
		zap.Int("trades", len(p.Trades())),
	)

	return nil
}
