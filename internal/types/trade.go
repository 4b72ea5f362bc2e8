package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// Trade is an immutable record of one executed portfolio action. Trades are
// created exclusively by the virtual portfolio and appended to its trade log.
type Trade struct {
	Date   Date        `yaml:"date" json:"date" csv:"date"`
	Action TradeAction `yaml:"action" json:"action" csv:"action" validate:"required,oneof=BUY SELL"`
	Shares int64       `yaml:"shares" json:"shares" csv:"shares" validate:"required,gt=0"`
	Price  float64     `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	// Value is shares * price at execution.
	Value float64 `yaml:"value" json:"value" csv:"value"`
	// Profit is the signed gain on a SELL, computed against the most recent
	// BUY trade's price. Always 0 for BUY trades.
	Profit float64 `yaml:"profit" json:"profit" csv:"profit"`
}

// Validate validates the Trade struct.
func (t *Trade) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTrade, "invalid trade", err)
	}

	return nil
}
