package withdraw

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayoutState is the provider's view of a submitted payout.
type PayoutState string

const (
	PayoutProcessing PayoutState = "processing"
	PayoutFinished   PayoutState = "finished"
	PayoutFailed     PayoutState = "failed"
)

// Provider is the crypto-payment collaborator, opaque to the pipeline.
// CreatePayout is called at most once per request; PayoutStatus is a read
// and may be retried freely.
type Provider interface {
	CreatePayout(ctx context.Context, asset, address string, amount decimal.Decimal) (ref string, err error)
	PayoutStatus(ctx context.Context, ref string) (PayoutState, error)
}
