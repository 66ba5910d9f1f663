package enum

// ThresholdAction represents the action taken when a warning threshold is reached.
//
//go:generate go tool enumer -type=ThresholdAction -trimprefix=ThresholdAction
type ThresholdAction int

const (
	// ThresholdActionKick disconnects the player from the network.
	ThresholdActionKick ThresholdAction = iota
	// ThresholdActionTempBan issues a temporary ban.
	ThresholdActionTempBan
	// ThresholdActionPermBan issues a permanent ban.
	ThresholdActionPermBan
)
