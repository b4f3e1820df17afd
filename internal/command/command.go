// Package command decodes the chat collaborator's opaque callback tokens
// ("gametype_action_param...") into typed commands at the boundary, so the
// core never switches on raw strings.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command token")

type Command interface{ isCommand() }

// PlaceBet: "<game>_bet_<stake>" with an optional guess, e.g.
// "coinflip_bet_500_heads", "dice_bet_250_3".
type PlaceBet struct {
	Game  string
	Stake int64
	Guess string
}

// CrashCashout: "crash_cashout_<roundID>_<wagerID>".
type CrashCashout struct {
	RoundID string
	WagerID string
}

// CrashJoin: "crash_join_<roundID>_<stake>".
type CrashJoin struct {
	RoundID string
	Stake   int64
}

// Reveal: "mines_reveal_<wagerID>_<tile>" / "tower_climb_<wagerID>_<column>".
type Reveal struct {
	Game    string
	WagerID string
	Choice  int
}

// BoardCashout: "mines_cashout_<wagerID>" / "tower_cashout_<wagerID>".
type BoardCashout struct {
	Game    string
	WagerID string
}

// WithdrawConfirm: "withdraw_confirm_<requestID>".
type WithdrawConfirm struct {
	RequestID string
}

func (PlaceBet) isCommand()        {}
func (CrashCashout) isCommand()    {}
func (CrashJoin) isCommand()       {}
func (Reveal) isCommand()          {}
func (BoardCashout) isCommand()    {}
func (WithdrawConfirm) isCommand() {}

// Parse decodes one token. Unknown shapes come back as ErrUnknownCommand;
// nothing is ever guessed.
func Parse(token string) (Command, error) {
	parts := strings.Split(token, "_")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, token)
	}

	game, action := parts[0], parts[1]
	args := parts[2:]

	switch {
	case game == "crash" && action == "cashout" && len(args) == 2:
		return CrashCashout{RoundID: args[0], WagerID: args[1]}, nil

	case game == "crash" && action == "join" && len(args) == 2:
		stake, err := parseStake(args[1])
		if err != nil {
			return nil, err
		}
		return CrashJoin{RoundID: args[0], Stake: stake}, nil

	case action == "bet" && len(args) >= 1:
		stake, err := parseStake(args[0])
		if err != nil {
			return nil, err
		}
		guess := ""
		if len(args) > 1 {
			guess = args[1]
		}
		return PlaceBet{Game: game, Stake: stake, Guess: guess}, nil

	case (game == "mines" && action == "reveal" || game == "tower" && action == "climb") && len(args) == 2:
		choice, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad choice in %q", ErrUnknownCommand, token)
		}
		return Reveal{Game: game, WagerID: args[0], Choice: choice}, nil

	case (game == "mines" || game == "tower") && action == "cashout" && len(args) == 1:
		return BoardCashout{Game: game, WagerID: args[0]}, nil

	case game == "withdraw" && action == "confirm" && len(args) == 1:
		return WithdrawConfirm{RequestID: args[0]}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, token)
}

func parseStake(s string) (int64, error) {
	stake, err := strconv.ParseInt(s, 10, 64)
	if err != nil || stake <= 0 {
		return 0, fmt.Errorf("%w: bad stake %q", ErrUnknownCommand, s)
	}
	return stake, nil
}
