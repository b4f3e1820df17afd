package progressive

import "errors"

var (
	ErrGameNotFound  = errors.New("no active game for wager")
	ErrGameOver      = errors.New("game already finished")
	ErrTileRevealed  = errors.New("tile already revealed")
	ErrBadTile       = errors.New("tile out of range")
	ErrBadMineCount  = errors.New("mine count out of range")
	ErrBadDifficulty = errors.New("unknown difficulty")
)

// Mines board is the original 5x5 grid with 1-24 mines.
const (
	minesGridSize = 25
	minesMin      = 1
	minesMax      = 24
)

// Tower presets from the original rules: eight levels, one trap per level,
// level width and per-level factor by difficulty.
type towerPreset struct {
	columns int
	factor  float64
}

const towerLevels = 8

var towerPresets = map[string]towerPreset{
	"easy":   {columns: 4, factor: 1.3},
	"medium": {columns: 3, factor: 1.5},
	"hard":   {columns: 2, factor: 2.0},
}
