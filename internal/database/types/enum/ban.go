package enum

// BanType represents how long a ban lasts.
//
//go:generate go tool enumer -type=BanType -trimprefix=BanType
type BanType int

const (
	// BanTypePermanent indicates a ban with no expiry.
	BanTypePermanent BanType = iota
	// BanTypeTemporary indicates a ban that expires at a set time.
	BanTypeTemporary
)
