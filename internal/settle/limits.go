package settle

import "fmt"

// Limits validates stakes before any money moves.
type Limits struct {
	MinStake int64
	MaxStake int64
}

func (l Limits) Validate(stake int64) error {
	if stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidWager)
	}
	if stake < l.MinStake {
		return fmt.Errorf("%w: stake below minimum %d", ErrInvalidWager, l.MinStake)
	}
	if l.MaxStake > 0 && stake > l.MaxStake {
		return fmt.Errorf("%w: stake above maximum %d", ErrInvalidWager, l.MaxStake)
	}
	return nil
}
