package sim

import "errors"

// Validation failures returned by the command surface. These are ordinary
// result values: recoverable, surfaced to the UI as feedback, matched with
// errors.Is. Grid-level failures (ErrOutOfBounds, ErrOccupiedCell) come from
// the grid package unchanged.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWouldBlockPath    = errors.New("placement would block the enemy path")
	ErrMaxLevelReached   = errors.New("attribute already at max level")
	ErrNoTargetSelected  = errors.New("no tower type selected")
	ErrUnknownTowerType  = errors.New("unknown tower type")
	ErrUnknownEntity     = errors.New("no such entity")
	ErrInvalidAttribute  = errors.New("attribute not upgradeable on this entity")
	ErrWrongState        = errors.New("command not valid in current game state")
	ErrWaveNotReady      = errors.New("wave still in progress or none remain")
)
