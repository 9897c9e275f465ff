package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/elys-network/basketvault/internal/types"
)

// Call is one vault operation. The set of calls is closed; see the types in this package.
type Call interface {
	// Name is the wire name of the call.
	Name() string

	role() types.Role
	apply(v *Vault, tx *batch) (Result, error)
}

// Result reports what a call did.
type Result struct {
	Call    string              `json:"call"`
	NoOp    bool                `json:"no_op,omitempty"`
	Amounts []types.TokenAmount `json:"amounts,omitempty"`
}

// batch is the execution context shared by every call of one Multicall.
type batch struct {
	id     uuid.UUID
	caller string
	now    time.Time
	events []types.Event
}

// journal is the vault side state a failed batch rolls back to.
type journal struct {
	phase             types.Phase
	owner             string
	pendingOwner      string
	manager           string
	noticeTimeoutAt   time.Time
	lastSwapFeeChange time.Time
	oraclesEnabled    bool
	window            types.WeightWindow
	fees              types.FeeState
	seq               uint64
	pool              int
	ledger            int
}

func (v *Vault) capture() journal {
	return journal{
		phase:             v.phase,
		owner:             v.owner,
		pendingOwner:      v.pendingOwner,
		manager:           v.manager,
		noticeTimeoutAt:   v.noticeTimeoutAt,
		lastSwapFeeChange: v.lastSwapFeeChange,
		oraclesEnabled:    v.guard.Enabled(),
		window:            v.scheduler.Window(),
		fees:              v.fees.State(),
		seq:               v.seq,
		pool:              v.pool.Snapshot(),
		ledger:            v.ledger.Snapshot(),
	}
}

// commit drops the collaborator journals once the batch can no longer fail.
func (v *Vault) commit(j journal) {
	v.ledger.DiscardSnapshot(j.ledger)
	v.pool.DiscardSnapshot(j.pool)
}

func (v *Vault) revert(j journal) {
	v.ledger.RevertToSnapshot(j.ledger)
	v.pool.RevertToSnapshot(j.pool)
	v.phase = j.phase
	v.owner = j.owner
	v.pendingOwner = j.pendingOwner
	v.manager = j.manager
	v.noticeTimeoutAt = j.noticeTimeoutAt
	v.lastSwapFeeChange = j.lastSwapFeeChange
	v.guard.SetEnabled(j.oraclesEnabled)
	v.scheduler.Restore(j.window)
	v.fees.Restore(j.fees)
	v.seq = j.seq
}

// Multicall runs calls in order as one unit. Each call is authorized against the role it
// requires, so the caller must hold every role the batch needs. The clock is read once.
// If any call fails the vault, the pool and the ledger are restored and no event is kept.
func (v *Vault) Multicall(caller string, calls ...Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, ErrEmptyBatch
	}
	tx := &batch{id: uuid.New(), caller: caller, now: v.clock.Now()}
	j := v.capture()

	results := make([]Result, 0, len(calls))
	for i, call := range calls {
		res, err := v.run(tx, call)
		if err != nil {
			v.revert(j)
			v.logger.Warn().
				Err(err).
				Str("batch_id", tx.id.String()).
				Str("caller", caller).
				Int("call_index", i).
				Str("call", call.Name()).
				Msg("Batch reverted")
			return nil, errorsmod.Wrapf(err, "call %d (%s)", i, call.Name())
		}
		results = append(results, res)
	}

	v.commit(j)
	v.pending = append(v.pending, tx.events...)
	v.logger.Debug().
		Str("batch_id", tx.id.String()).
		Str("caller", caller).
		Int("calls", len(calls)).
		Int("events", len(tx.events)).
		Uint64("seq", v.seq).
		Msg("Batch committed")
	return results, nil
}

// Execute runs a single call as a one call batch.
func (v *Vault) Execute(caller string, call Call) (Result, error) {
	results, err := v.Multicall(caller, call)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

func (v *Vault) run(tx *batch, call Call) (Result, error) {
	if call == nil {
		return Result{}, ErrUnknownCall
	}
	if err := v.authorize(tx.caller, call.role()); err != nil {
		return Result{}, err
	}
	return call.apply(v, tx)
}

// effect collects the before side of an event while a call runs.
type effect struct {
	holdings  []sdkmath.Int
	weights   []sdkmath.LegacyDec
	transfers sdk.Coins
	attrs     map[string]string
}

func (v *Vault) begin(tx *batch) *effect {
	return &effect{
		holdings: v.pool.Balances(),
		weights:  v.weightsAt(tx.now),
		attrs:    map[string]string{},
	}
}

func (v *Vault) emit(tx *batch, typ types.EventType, e *effect) {
	v.seq++
	tx.events = append(tx.events, types.Event{
		ID:             uuid.New(),
		BatchID:        tx.id,
		Seq:            v.seq,
		Type:           typ,
		Caller:         tx.caller,
		Time:           tx.now,
		HoldingsBefore: e.holdings,
		HoldingsAfter:  v.pool.Balances(),
		WeightsBefore:  e.weights,
		WeightsAfter:   v.weightsAt(tx.now),
		Transfers:      e.transfers,
		Attributes:     e.attrs,
		State:          v.snapshot(tx.now),
	})
}

// weightsAt is the scheduled weight vector, or nil before the first deposit.
func (v *Vault) weightsAt(now time.Time) []sdkmath.LegacyDec {
	ws, err := v.scheduler.CurrentWeights(now)
	if err != nil {
		return nil
	}
	return ws
}
