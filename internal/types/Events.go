/*

Audit trail events.

Every committed state transition emits one Event. Events carry the holdings and weights
before and after the transition plus the snapshot right after it, so history can be
reconstructed off-chain from the last stored snapshot and the events that follow it.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
)

// EventType names a state transition.
type EventType string

const (
	EventInitialDeposit            EventType = "INITIAL_DEPOSIT"
	EventDeposit                   EventType = "DEPOSIT"
	EventWithdraw                  EventType = "WITHDRAW"
	EventNoOp                      EventType = "NO_OP"
	EventUpdateWeightsGradually    EventType = "UPDATE_WEIGHTS_GRADUALLY"
	EventCancelWeightUpdates       EventType = "CANCEL_WEIGHT_UPDATES"
	EventEnableTrading             EventType = "ENABLE_TRADING"
	EventDisableTrading            EventType = "DISABLE_TRADING"
	EventSetSwapFee                EventType = "SET_SWAP_FEE"
	EventSetOraclesEnabled         EventType = "SET_ORACLES_ENABLED"
	EventDistributeManagerFees     EventType = "DISTRIBUTE_MANAGER_FEES"
	EventClaimManagerFees          EventType = "CLAIM_MANAGER_FEES"
	EventInitiateFinalization      EventType = "INITIATE_FINALIZATION"
	EventFinalize                  EventType = "FINALIZE"
	EventSetManager                EventType = "SET_MANAGER"
	EventOwnershipTransferOffered  EventType = "OWNERSHIP_TRANSFER_OFFERED"
	EventOwnershipTransferred      EventType = "OWNERSHIP_TRANSFERRED"
	EventOwnershipTransferCanceled EventType = "OWNERSHIP_TRANSFER_CANCELED"
	EventSweep                     EventType = "SWEEP"
)

// Event is one committed state transition.
type Event struct {
	ID             uuid.UUID           `json:"id"`
	BatchID        uuid.UUID           `json:"batch_id"`
	Seq            uint64              `json:"seq"`
	Type           EventType           `json:"type"`
	Caller         string              `json:"caller"`
	Time           time.Time           `json:"time"`
	HoldingsBefore []sdkmath.Int       `json:"holdings_before"`
	HoldingsAfter  []sdkmath.Int       `json:"holdings_after"`
	WeightsBefore  []sdkmath.LegacyDec `json:"weights_before"`
	WeightsAfter   []sdkmath.LegacyDec `json:"weights_after"`
	Transfers      sdk.Coins           `json:"transfers,omitempty"`
	Attributes     map[string]string   `json:"attributes,omitempty"`
	State          VaultSnapshot       `json:"state"`
}
