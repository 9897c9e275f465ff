package weights

import (
	"math"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
	"github.com/elys-network/basketvault/internal/types"
)

const codespace = "weights"

var (
	ErrSumOfWeightIsNotOne         = errorsmod.Register(codespace, 2, "sum of weight is not one")
	ErrStartTimeIsAboveMax         = errorsmod.Register(codespace, 3, "start time is above max")
	ErrEndTimeIsAboveMax           = errorsmod.Register(codespace, 4, "end time is above max")
	ErrEndBeforeStart              = errorsmod.Register(codespace, 5, "end time is before start time")
	ErrDurationIsBelowMin          = errorsmod.Register(codespace, 6, "weight change duration is below min")
	ErrWeightChangeRatioIsAboveMax = errorsmod.Register(codespace, 7, "weight change ratio is above max")
	ErrWeightBelowMin              = errorsmod.Register(codespace, 8, "weight is below min")
	ErrNoWeights                   = errorsmod.Register(codespace, 9, "weights are not initialized")
	ErrInvalidSchedulerParams      = errorsmod.Register(codespace, 10, "invalid scheduler params")
)

// MaxTimestamp is the largest schedulable instant, in unix seconds.
const MaxTimestamp = math.MaxUint32

// Params bounds how fast and how far weights may move.
type Params struct {
	// MinDuration is the shortest allowed gradual update.
	MinDuration time.Duration
	// MaxChangeRatio is the largest allowed max(w/t, t/w) per second of update.
	MaxChangeRatio sdkmath.LegacyDec
	// MinWeight is the pool's floor for a single weight.
	MinWeight sdkmath.LegacyDec
}

// Validate checks that the params describe a usable schedule.
func (p Params) Validate() error {
	if p.MinDuration <= 0 {
		return errorsmod.Wrap(ErrInvalidSchedulerParams, "min duration must be positive")
	}
	if p.MaxChangeRatio.IsNil() || !p.MaxChangeRatio.IsPositive() {
		return errorsmod.Wrap(ErrInvalidSchedulerParams, "max change ratio must be positive")
	}
	if p.MinWeight.IsNil() || p.MinWeight.IsNegative() || p.MinWeight.GTE(fixed.One()) {
		return errorsmod.Wrap(ErrInvalidSchedulerParams, "min weight must be in [0, 1)")
	}
	return nil
}

// Scheduler owns the weight window and answers what the weights are at a given instant.
type Scheduler struct {
	params Params
	window types.WeightWindow
}

// NewScheduler returns a scheduler without weights. Weights appear with the first SetImmediate.
func NewScheduler(params Params) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: params}, nil
}

// Params returns the scheduler bounds.
func (s *Scheduler) Params() Params { return s.params }

// Window returns a copy of the installed window.
func (s *Scheduler) Window() types.WeightWindow { return s.window.Clone() }

// Restore replaces the window, used when a failed call is reverted or state is recovered.
func (s *Scheduler) Restore(w types.WeightWindow) { s.window = w.Clone() }

// Reset drops the window.
func (s *Scheduler) Reset() { s.window = types.WeightWindow{} }

// CurrentWeights interpolates each weight independently at now.
func (s *Scheduler) CurrentWeights(now time.Time) ([]sdkmath.LegacyDec, error) {
	w := s.window
	if w.IsZero() {
		return nil, ErrNoWeights
	}
	if !now.After(w.StartTime) {
		return append([]sdkmath.LegacyDec(nil), w.StartWeights...), nil
	}
	if !now.Before(w.EndTime) {
		return append([]sdkmath.LegacyDec(nil), w.EndWeights...), nil
	}

	elapsed := now.Unix() - w.StartTime.Unix()
	total := w.EndTime.Unix() - w.StartTime.Unix()
	out := make([]sdkmath.LegacyDec, len(w.EndWeights))
	for i := range out {
		v, err := fixed.Lerp(w.StartWeights[i], w.EndWeights[i], elapsed, total)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// BeginUpdate validates a gradual update toward targets and installs it, replacing any
// window in flight. The new window starts at max(now, start) from the current weights.
func (s *Scheduler) BeginUpdate(tokens []string, targets []types.TokenWeight, start, end, now time.Time) error {
	target, err := types.WeightVector(tokens, targets)
	if err != nil {
		return err
	}
	if err := CheckSum(target); err != nil {
		return err
	}
	if start.Unix() > MaxTimestamp {
		return errorsmod.Wrapf(ErrStartTimeIsAboveMax, "%d > %d", start.Unix(), int64(MaxTimestamp))
	}
	if end.Unix() > MaxTimestamp {
		return errorsmod.Wrapf(ErrEndTimeIsAboveMax, "%d > %d", end.Unix(), int64(MaxTimestamp))
	}
	if !end.After(start) {
		return errorsmod.Wrapf(ErrEndBeforeStart, "start %d, end %d", start.Unix(), end.Unix())
	}

	actualStart := start
	if now.After(actualStart) {
		actualStart = now
	}
	nominal := end.Sub(start)
	actual := end.Sub(actualStart)
	binding := nominal
	if actual < binding {
		binding = actual
	}
	if binding < s.params.MinDuration {
		return errorsmod.Wrapf(ErrDurationIsBelowMin, "%s < %s", binding, s.params.MinDuration)
	}

	current, err := s.CurrentWeights(now)
	if err != nil {
		return err
	}
	seconds := int64(binding / time.Second)
	maxRatio := s.params.MaxChangeRatio.MulInt64(seconds)
	for i := range target {
		if !target[i].IsPositive() || !current[i].IsPositive() {
			continue
		}
		ratio, err := changeRatio(current[i], target[i])
		if err != nil {
			return err
		}
		if ratio.GT(maxRatio) {
			return errorsmod.Wrapf(ErrWeightChangeRatioIsAboveMax, "token %d: %s > %s", i, ratio, maxRatio)
		}
	}

	if err := CheckMinimum(target, s.params.MinWeight); err != nil {
		return err
	}

	s.window = types.WeightWindow{
		StartWeights: current,
		EndWeights:   target,
		StartTime:    actualStart,
		EndTime:      end,
	}
	return nil
}

// Cancel freezes the weights at their interpolated value for now.
func (s *Scheduler) Cancel(now time.Time) error {
	current, err := s.CurrentWeights(now)
	if err != nil {
		return err
	}
	s.install(current, now)
	return nil
}

// SetImmediate installs weights effective at now with no drift afterwards.
func (s *Scheduler) SetImmediate(weights []sdkmath.LegacyDec, now time.Time) error {
	if err := CheckSum(weights); err != nil {
		return err
	}
	if err := CheckMinimum(weights, s.params.MinWeight); err != nil {
		return err
	}
	s.install(weights, now)
	return nil
}

func (s *Scheduler) install(weights []sdkmath.LegacyDec, now time.Time) {
	s.window = types.WeightWindow{
		StartWeights: append([]sdkmath.LegacyDec(nil), weights...),
		EndWeights:   append([]sdkmath.LegacyDec(nil), weights...),
		StartTime:    now,
		EndTime:      now,
	}
}

// changeRatio is max(a/b, b/a).
func changeRatio(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if a.GT(b) {
		return fixed.Quo(a, b)
	}
	return fixed.Quo(b, a)
}
