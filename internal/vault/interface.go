package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Pool is the weighted AMM pool the vault keeps its holdings in.
// Balances and weights are ordered like the vault's token list.
type Pool interface {
	// Address is the account the pool holds its tokens in.
	Address() string

	// Balances returns the pool balance of every token.
	Balances() []sdkmath.Int

	// Weights returns the normalized weights the pool currently prices with.
	Weights() []sdkmath.LegacyDec

	// SpotPrice returns how many units of token in buy one unit of token out.
	SpotPrice(in, out int) (sdkmath.LegacyDec, error)

	SetWeights(weights []sdkmath.LegacyDec) error
	SwapFee() sdkmath.LegacyDec
	SetSwapFee(fee sdkmath.LegacyDec) error
	PublicSwap() bool
	SetPublicSwap(enabled bool)

	// JoinPool adds amounts to the pool balances. The tokens must already have been
	// transferred to Address.
	JoinPool(amounts []sdkmath.Int) error

	// ExitPool removes amounts from the pool balances. The caller moves the tokens
	// out of Address afterwards.
	ExitPool(amounts []sdkmath.Int) error

	// Snapshot, RevertToSnapshot and DiscardSnapshot journal the pool so a failed
	// batch leaves no trace.
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Ledger moves tokens between accounts.
type Ledger interface {
	Transfer(from, to string, coins sdk.Coins) error
	Balance(addr, denom string) sdkmath.Int
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Validator bounds how much of each token the owner may withdraw.
type Validator interface {
	Allowance(index int) sdkmath.Int
}

// Clock supplies the time a batch executes at.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, truncated to whole seconds.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }
