package withdraw

import "errors"

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusAutoApproved Status = "AUTO_APPROVED"
	StatusManualReview Status = "MANUAL_REVIEW"
	StatusConfirmed    Status = "CONFIRMED"
	StatusRejected     Status = "REJECTED"
)

// Terminal statuses are write-once: every transition into them is a
// conditional UPDATE guarded on the current status.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

var (
	ErrRequestNotFound  = errors.New("withdrawal not found")
	ErrAmountOutOfRange = errors.New("amount outside withdrawal limits")
	ErrUnsupportedAsset = errors.New("unsupported asset")
	ErrAddressInvalid   = errors.New("destination address invalid")
	ErrBelowAssetMin    = errors.New("amount below asset minimum")
	ErrNotReviewable    = errors.New("request not awaiting review")
)

type Request struct {
	ID          string `json:"id"`
	UID         int64  `json:"uid"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee"`
	Asset       string `json:"asset"`
	Address     string `json:"address"`
	Status      Status `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Limits is the injected config surface: everything in minor units except
// the fee percentage.
type Limits struct {
	Min              int64
	Max              int64
	AutoApproveLimit int64
	FeePercent       float64
	FeeMin           int64
	FeeMax           int64
}

// FeeFor computes the processing fee: a percentage clamped to the
// configured bounds.
func (l Limits) FeeFor(amount int64) int64 {
	fee := int64(float64(amount) * l.FeePercent / 100)
	if fee < l.FeeMin {
		fee = l.FeeMin
	}
	if fee > l.FeeMax {
		fee = l.FeeMax
	}
	return fee
}
