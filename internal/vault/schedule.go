package vault

import (
	"time"

	"github.com/elys-network/basketvault/internal/types"
)

// UpdateWeightsGradually moves the weights linearly to Weights between StartTime and
// EndTime, replacing any update in flight.
type UpdateWeightsGradually struct {
	Weights   []types.TokenWeight `json:"weights"`
	StartTime time.Time           `json:"start_time"`
	EndTime   time.Time           `json:"end_time"`
}

func (UpdateWeightsGradually) Name() string { return "update_weights_gradually" }
func (UpdateWeightsGradually) role() types.Role { return types.RoleManager }

func (c UpdateWeightsGradually) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.distributeFees(tx, false); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	if err := v.scheduler.BeginUpdate(v.tokens, c.Weights, c.StartTime, c.EndTime, tx.now); err != nil {
		return Result{}, err
	}
	w := v.scheduler.Window()
	e.attrs["start_time"] = w.StartTime.Format(time.RFC3339)
	e.attrs["end_time"] = w.EndTime.Format(time.RFC3339)
	v.emit(tx, types.EventUpdateWeightsGradually, e)
	return Result{Call: c.Name()}, nil
}

// CancelWeightUpdates freezes the weights where the current update has brought them.
type CancelWeightUpdates struct{}

func (CancelWeightUpdates) Name() string { return "cancel_weight_updates" }
func (CancelWeightUpdates) role() types.Role { return types.RoleManager }

func (c CancelWeightUpdates) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	e := v.begin(tx)
	if err := v.scheduler.Cancel(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	v.emit(tx, types.EventCancelWeightUpdates, e)
	return Result{Call: c.Name()}, nil
}
