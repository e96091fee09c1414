package types

// Position is the broker-reported net exposure for a symbol on a netting
// account: at most one economic direction is open at a time, so the position
// is characterized by NetUnits.
//
// The broker client normalizes venue polarity so that ShortUnits is always
// reported here as a non-positive number regardless of how the venue encodes it.
type Position struct {
	Symbol string
	// LongUnits is the open long exposure, >= 0
	LongUnits int64
	// ShortUnits is the open short exposure, <= 0
	ShortUnits int64
}

// NetUnits is the signed net exposure.
func (p Position) NetUnits() int64 {
	return p.LongUnits + p.ShortUnits
}

// IsFlat reports whether there is no open exposure.
func (p Position) IsFlat() bool {
	return p.LongUnits == 0 && p.ShortUnits == 0
}

// HasLong reports whether the long side is open.
func (p Position) HasLong() bool {
	return p.LongUnits > 0
}

// HasShort reports whether the short side is open.
func (p Position) HasShort() bool {
	return p.ShortUnits < 0
}

// Direction returns the open side. Only meaningful when !IsFlat().
func (p Position) Direction() Side {
	if p.HasShort() {
		return SideShort
	}

	return SideLong
}
