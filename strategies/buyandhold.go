package strategies

import (
	"context"

	"vecbacktest/internal/engine"
	"vecbacktest/types"
)

var _ engine.SignalSource = (*BuyAndHold)(nil)

// BuyAndHold is long on every bar. With the execution lag the position is
// opened on the second bar and held to the end.
type BuyAndHold struct{}

func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

func (s *BuyAndHold) Name() string {
	return "buy-and-hold"
}

func (s *BuyAndHold) GenerateSignal(_ context.Context, series *engine.Series) (types.Signal, error) {
	return types.Constant(series.Len(), types.Long), nil
}
