package oracle

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StaticFeed is a settable feed used by the simulation daemon and tests.
type StaticFeed struct {
	answer   sdkmath.Int
	updated  time.Time
	decimals uint8
}

// NewStaticFeed returns a feed with the given answer, update time and precision.
func NewStaticFeed(answer sdkmath.Int, updated time.Time, decimals uint8) *StaticFeed {
	return &StaticFeed{answer: answer, updated: updated, decimals: decimals}
}

func (f *StaticFeed) LatestAnswer() sdkmath.Int { return f.answer }
func (f *StaticFeed) UpdatedAt() time.Time { return f.updated }
func (f *StaticFeed) Decimals() uint8 { return f.decimals }

// Set publishes a new answer at the given time.
func (f *StaticFeed) Set(answer sdkmath.Int, at time.Time) {
	f.answer = answer
	f.updated = at
}
