/*

Persisted vault state.

A VaultSnapshot is everything needed to rebuild a vault: the lifecycle phase, role
holders, the weight window, fee bookkeeping and the pool view. Snapshots are stored
periodically and every event carries the snapshot taken right after it.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// WeightWindow is a linear weight schedule between two instants.
type WeightWindow struct {
	StartWeights []sdkmath.LegacyDec `json:"start_weights"`
	EndWeights   []sdkmath.LegacyDec `json:"end_weights"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
}

// IsZero reports whether no window has been installed.
func (w WeightWindow) IsZero() bool {
	return len(w.EndWeights) == 0
}

// Clone copies the weight slices.
func (w WeightWindow) Clone() WeightWindow {
	return WeightWindow{
		StartWeights: append([]sdkmath.LegacyDec(nil), w.StartWeights...),
		EndWeights:   append([]sdkmath.LegacyDec(nil), w.EndWeights...),
		StartTime:    w.StartTime,
		EndTime:      w.EndTime,
	}
}

// FeeState is the management fee bookkeeping.
type FeeState struct {
	CreatedAt       time.Time                `json:"created_at"`
	LastCheckpoint  time.Time                `json:"last_checkpoint"`
	ManagerFeeTotal []sdkmath.Int            `json:"manager_fee_total"`
	FeePerManager   map[string][]sdkmath.Int `json:"fee_per_manager"`
}

// Clone deep-copies the per manager vectors.
func (f FeeState) Clone() FeeState {
	out := FeeState{
		CreatedAt:       f.CreatedAt,
		LastCheckpoint:  f.LastCheckpoint,
		ManagerFeeTotal: append([]sdkmath.Int(nil), f.ManagerFeeTotal...),
		FeePerManager:   make(map[string][]sdkmath.Int, len(f.FeePerManager)),
	}
	for addr, owed := range f.FeePerManager {
		out.FeePerManager[addr] = append([]sdkmath.Int(nil), owed...)
	}
	return out
}

// VaultSnapshot is the full recoverable state of a vault.
type VaultSnapshot struct {
	Seq               uint64              `json:"seq"`
	Time              time.Time           `json:"time"`
	Phase             Phase               `json:"phase"`
	Tokens            []string            `json:"tokens"`
	Owner             string              `json:"owner"`
	PendingOwner      string              `json:"pending_owner,omitempty"`
	Manager           string              `json:"manager"`
	OraclesEnabled    bool                `json:"oracles_enabled"`
	NoticeTimeoutAt   time.Time           `json:"notice_timeout_at,omitempty"`
	LastSwapFeeChange time.Time           `json:"last_swap_fee_change,omitempty"`
	Window            WeightWindow        `json:"window"`
	Weights           []sdkmath.LegacyDec `json:"weights"`
	Fees              FeeState            `json:"fees"`
	Pool              PoolState           `json:"pool"`
}
