/*

In-memory weighted pool.

Prices every pair with the constant weighted product rule: the spot price of token out in
terms of token in is (B_in / w_in) / (B_out / w_out). Swaps charge the swap fee on the
input side. The pool keeps no token custody of its own; the caller moves tokens on the
ledger and the pool tracks balances.

*/

package amm

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/fixed"
	"github.com/elys-network/basketvault/internal/logger"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/utils"
	"github.com/elys-network/basketvault/internal/weights"
)

const codespace = "amm"

var (
	ErrTokenIndex              = errorsmod.Register(codespace, 2, "token index out of range")
	ErrLengthMismatch          = errorsmod.Register(codespace, 3, "vector length does not match pool tokens")
	ErrInsufficientPoolBalance = errorsmod.Register(codespace, 4, "insufficient pool balance")
	ErrInvalidWeights          = errorsmod.Register(codespace, 5, "invalid pool weights")
	ErrInvalidSwapFee          = errorsmod.Register(codespace, 6, "invalid swap fee")
	ErrPublicSwapDisabled      = errorsmod.Register(codespace, 7, "public swap is disabled")
	ErrSameToken               = errorsmod.Register(codespace, 8, "cannot swap a token for itself")
	ErrEmptyBalance            = errorsmod.Register(codespace, 9, "pool balance is zero")
	ErrSlippage                = errorsmod.Register(codespace, 10, "amount out below minimum")
	ErrInvalidAmount           = errorsmod.Register(codespace, 11, "invalid amount")
)

// Pool is a weighted pool over a fixed, ordered token list.
type Pool struct {
	logger zerolog.Logger

	address string
	tokens  []string
	state   types.PoolState

	revisions []types.PoolState
}

// NewPool returns an empty pool with equal weights and swaps disabled.
func NewPool(address string, tokens []string, swapFee sdkmath.LegacyDec) (*Pool, error) {
	if len(tokens) < 2 {
		return nil, errorsmod.Wrapf(ErrLengthMismatch, "need at least 2 tokens, got %d", len(tokens))
	}
	if swapFee.IsNil() || swapFee.IsNegative() || swapFee.GTE(fixed.One()) {
		return nil, errorsmod.Wrapf(ErrInvalidSwapFee, "%s", swapFee)
	}

	n := len(tokens)
	equal, err := weights.Normalize(equalWeights(n), sdkmath.LegacyZeroDec())
	if err != nil {
		return nil, err
	}
	return &Pool{
		logger:  logger.GetForComponent("amm_pool"),
		address: address,
		tokens:  append([]string(nil), tokens...),
		state: types.PoolState{
			Address:  address,
			Balances: types.ZeroAmounts(n),
			Weights:  equal,
			SwapFee:  swapFee,
		},
	}, nil
}

func equalWeights(n int) []sdkmath.LegacyDec {
	out := make([]sdkmath.LegacyDec, n)
	for i := range out {
		out[i] = fixed.One()
	}
	return out
}

func (p *Pool) Address() string { return p.address }

// Tokens returns the token list the pool was created with.
func (p *Pool) Tokens() []string { return append([]string(nil), p.tokens...) }

// Balances returns a copy of the pool balances.
func (p *Pool) Balances() []sdkmath.Int { return append([]sdkmath.Int(nil), p.state.Balances...) }

// Weights returns a copy of the pool weights.
func (p *Pool) Weights() []sdkmath.LegacyDec {
	return append([]sdkmath.LegacyDec(nil), p.state.Weights...)
}

func (p *Pool) SwapFee() sdkmath.LegacyDec { return p.state.SwapFee }

func (p *Pool) PublicSwap() bool { return p.state.PublicSwap }

func (p *Pool) SetPublicSwap(enabled bool) { p.state.PublicSwap = enabled }

// SetSwapFee accepts any fee in [0, 1).
func (p *Pool) SetSwapFee(fee sdkmath.LegacyDec) error {
	if fee.IsNil() || fee.IsNegative() || fee.GTE(fixed.One()) {
		return errorsmod.Wrapf(ErrInvalidSwapFee, "%s", fee)
	}
	p.state.SwapFee = fee
	return nil
}

// SetWeights replaces the weights. They must be positive and sum to one.
func (p *Pool) SetWeights(ws []sdkmath.LegacyDec) error {
	if len(ws) != len(p.tokens) {
		return errorsmod.Wrapf(ErrLengthMismatch, "got %d weights for %d tokens", len(ws), len(p.tokens))
	}
	for i, w := range ws {
		if w.IsNil() || !w.IsPositive() {
			return errorsmod.Wrapf(ErrInvalidWeights, "weight of %s is %s", p.tokens[i], w)
		}
	}
	if err := weights.CheckSum(ws); err != nil {
		return errorsmod.Wrap(ErrInvalidWeights, err.Error())
	}
	p.state.Weights = append([]sdkmath.LegacyDec(nil), ws...)
	return nil
}

// SpotPrice returns the units of token in paid for one unit of token out, ignoring the fee.
func (p *Pool) SpotPrice(in, out int) (sdkmath.LegacyDec, error) {
	if err := p.checkPair(in, out); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	bIn, bOut := p.state.Balances[in], p.state.Balances[out]
	if !bIn.IsPositive() || !bOut.IsPositive() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrEmptyBalance, "%s/%s", p.tokens[in], p.tokens[out])
	}
	num, err := fixed.Quo(sdkmath.LegacyNewDecFromInt(bIn), p.state.Weights[in])
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	den, err := fixed.Quo(sdkmath.LegacyNewDecFromInt(bOut), p.state.Weights[out])
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixed.Quo(num, den)
}

// JoinPool adds amounts to the balances.
func (p *Pool) JoinPool(amounts []sdkmath.Int) error {
	if err := p.checkAmounts(amounts); err != nil {
		return err
	}
	next := make([]sdkmath.Int, len(amounts))
	for i, a := range amounts {
		sum, err := fixed.AddAmount(p.state.Balances[i], a)
		if err != nil {
			return err
		}
		next[i] = sum
	}
	p.state.Balances = next
	return nil
}

// ExitPool removes amounts from the balances.
func (p *Pool) ExitPool(amounts []sdkmath.Int) error {
	if err := p.checkAmounts(amounts); err != nil {
		return err
	}
	next := make([]sdkmath.Int, len(amounts))
	for i, a := range amounts {
		if a.GT(p.state.Balances[i]) {
			return errorsmod.Wrapf(ErrInsufficientPoolBalance, "%s: have %s, need %s", p.tokens[i], p.state.Balances[i], a)
		}
		next[i] = p.state.Balances[i].Sub(a)
	}
	p.state.Balances = next
	return nil
}

// Swap trades amountIn of token in for token out at the weighted product curve and
// returns the amount out. The caller settles both legs on the ledger.
func (p *Pool) Swap(in, out int, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	if !p.state.PublicSwap {
		return sdkmath.Int{}, ErrPublicSwapDisabled
	}
	if err := p.checkPair(in, out); err != nil {
		return sdkmath.Int{}, err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrInvalidAmount, "amount in %s", amountIn)
	}

	amountOut, err := p.calcOutGivenIn(in, out, amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if !minAmountOut.IsNil() && amountOut.LT(minAmountOut) {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrSlippage, "got %s, want at least %s", amountOut, minAmountOut)
	}
	if amountOut.GTE(p.state.Balances[out]) {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrInsufficientPoolBalance, "%s: have %s, need %s", p.tokens[out], p.state.Balances[out], amountOut)
	}

	balances := p.Balances()
	balances[in] = balances[in].Add(amountIn)
	balances[out] = balances[out].Sub(amountOut)
	p.state.Balances = balances

	p.logger.Debug().
		Str("token_in", p.tokens[in]).
		Str("token_out", p.tokens[out]).
		Str("amount_in", amountIn.String()).
		Str("amount_out", amountOut.String()).
		Msg("Swap executed")
	return amountOut, nil
}

// calcOutGivenIn evaluates B_out * (1 - (B_in / (B_in + A_in*(1-fee)))^(w_in/w_out)).
// The fractional power is taken in float64 and the result is rounded down.
func (p *Pool) calcOutGivenIn(in, out int, amountIn sdkmath.Int) (sdkmath.Int, error) {
	bIn, err := utils.IntToFloat64(p.state.Balances[in])
	if err != nil {
		return sdkmath.Int{}, err
	}
	bOut, err := utils.IntToFloat64(p.state.Balances[out])
	if err != nil {
		return sdkmath.Int{}, err
	}
	aIn, err := utils.IntToFloat64(amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if bIn == 0 || bOut == 0 {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrEmptyBalance, "%s/%s", p.tokens[in], p.tokens[out])
	}
	fee, err := utils.DecToFloat64(p.state.SwapFee)
	if err != nil {
		return sdkmath.Int{}, err
	}
	wIn, err := utils.DecToFloat64(p.state.Weights[in])
	if err != nil {
		return sdkmath.Int{}, err
	}
	wOut, err := utils.DecToFloat64(p.state.Weights[out])
	if err != nil {
		return sdkmath.Int{}, err
	}

	ratio := bIn / (bIn + aIn*(1-fee))
	amountOut := bOut * (1 - math.Pow(ratio, wIn/wOut))
	return utils.FloorToInt(amountOut)
}

func (p *Pool) checkPair(in, out int) error {
	n := len(p.tokens)
	if in < 0 || in >= n || out < 0 || out >= n {
		return errorsmod.Wrapf(ErrTokenIndex, "pair (%d, %d) with %d tokens", in, out, n)
	}
	if in == out {
		return errorsmod.Wrapf(ErrSameToken, "%s", p.tokens[in])
	}
	return nil
}

func (p *Pool) checkAmounts(amounts []sdkmath.Int) error {
	if len(amounts) != len(p.tokens) {
		return errorsmod.Wrapf(ErrLengthMismatch, "got %d amounts for %d tokens", len(amounts), len(p.tokens))
	}
	for i, a := range amounts {
		if a.IsNil() || a.IsNegative() {
			return errorsmod.Wrapf(ErrInvalidAmount, "%s: %s", p.tokens[i], a)
		}
	}
	return nil
}

// State returns a copy of the full pool state.
func (p *Pool) State() types.PoolState {
	return clone(p.state)
}

// Load replaces the pool state, for example from a stored snapshot.
func (p *Pool) Load(s types.PoolState) error {
	if len(s.Balances) != len(p.tokens) || len(s.Weights) != len(p.tokens) {
		return errorsmod.Wrapf(ErrLengthMismatch, "state has %d balances and %d weights for %d tokens",
			len(s.Balances), len(s.Weights), len(p.tokens))
	}
	if err := p.checkAmounts(s.Balances); err != nil {
		return err
	}
	s.Address = p.address
	p.state = clone(s)
	p.revisions = nil
	return nil
}

// Snapshot records the current state and returns its revision id.
func (p *Pool) Snapshot() int {
	p.revisions = append(p.revisions, clone(p.state))
	return len(p.revisions) - 1
}

// RevertToSnapshot restores the state recorded under id and drops later revisions.
func (p *Pool) RevertToSnapshot(id int) {
	if id < 0 || id >= len(p.revisions) {
		p.logger.Error().Int("revision", id).Int("revisions", len(p.revisions)).Msg("Unknown pool revision")
		return
	}
	p.state = p.revisions[id]
	p.revisions = p.revisions[:id]
}

// DiscardSnapshot drops the revision id and every later one, keeping the current state.
func (p *Pool) DiscardSnapshot(id int) {
	if id < 0 || id >= len(p.revisions) {
		return
	}
	p.revisions = p.revisions[:id]
}

func clone(s types.PoolState) types.PoolState {
	s.Balances = append([]sdkmath.Int(nil), s.Balances...)
	s.Weights = append([]sdkmath.LegacyDec(nil), s.Weights...)
	return s
}
