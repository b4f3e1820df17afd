package settle

import "math"

type Game string

const (
	GameCoinflip Game = "coinflip"
	GameDice     Game = "dice"
	GameRoulette Game = "roulette"
	GameCrash    Game = "crash"
	GameMines    Game = "mines"
	GameTower    Game = "tower"
)

func ValidGame(g Game) bool {
	switch g {
	case GameCoinflip, GameDice, GameRoulette, GameCrash, GameMines, GameTower:
		return true
	}
	return false
}

// fixedMultipliers holds the winning multipliers of the fixed-odds games:
// coinflip pays double, a correct dice guess pays 5x, a roulette color bet
// pays even money. Multiplier-driven games are absent on purpose.
var fixedMultipliers = map[Game]int64{
	GameCoinflip: 2,
	GameDice:     5,
	GameRoulette: 2,
}

// payoutFor is a pure function of (game, stake, outcome).
func payoutFor(game Game, stake int64, out Outcome) int64 {
	switch out.Resolution {
	case ResolutionPush:
		return stake
	case ResolutionWin:
		if m, ok := fixedMultipliers[game]; ok {
			return stake * m
		}
		return MultiplierPayout(stake, out.Multiplier)
	default:
		return 0
	}
}

// MultiplierPayout converts a float multiplier win into minor units, rounding
// down so fractional cents always favor the house.
func MultiplierPayout(stake int64, multiplier float64) int64 {
	if multiplier <= 0 {
		return 0
	}
	return int64(math.Floor(float64(stake) * multiplier))
}
