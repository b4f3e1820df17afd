package event

const (
	EventWagerPlaced       = "wager.placed"
	EventWagerSettled      = "wager.settled"
	EventRoundCrashed      = "round.crashed"
	EventDepositConfirmed  = "deposit.confirmed"
	EventWithdrawRequested = "withdraw.requested"
	EventWithdrawRejected  = "withdraw.rejected"
	EventWithdrawConfirmed = "withdraw.confirmed"
	EventTransferSent      = "transfer.sent"
)

type WagerPlaced struct {
	WagerID string
	UID     int64
	Game    string
	Stake   int64
}

type WagerSettled struct {
	WagerID    string
	UID        int64
	Game       string
	Stake      int64
	Resolution string
	Payout     int64
}

type RoundCrashed struct {
	RoundID      string
	CrashPoint   float64
	Participants int
	CashedOut    int
}

type DepositConfirmed struct {
	PaymentID string
	UID       int64
	Amount    int64
}

type TransferSent struct {
	TransferID string
	FromUID    int64
	ToUID      int64
	Amount     int64
}

type WithdrawEvent struct {
	WithdrawID string
	UID        int64
	Amount     int64
	Fee        int64
	Status     string
}
