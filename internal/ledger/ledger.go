/*

In-memory token ledger.

Accounts are plain address strings holding sdk.Coins. Every mutation goes through Transfer
or Mint, and the ledger can be journaled so a failed batch leaves balances untouched.

*/

package ledger

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/logger"
)

const codespace = "ledger"

var (
	ErrInsufficientFunds = errorsmod.Register(codespace, 2, "insufficient funds")
	ErrInvalidCoins      = errorsmod.Register(codespace, 3, "invalid coins")
	ErrInvalidAddress    = errorsmod.Register(codespace, 4, "invalid address")
)

// Ledger tracks balances per account.
type Ledger struct {
	logger    zerolog.Logger
	balances  map[string]sdk.Coins
	revisions []map[string]sdk.Coins
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		logger:   logger.GetForComponent("ledger"),
		balances: map[string]sdk.Coins{},
	}
}

// Mint credits coins to addr out of thin air. Used to fund accounts.
func (l *Ledger) Mint(addr string, coins sdk.Coins) error {
	if addr == "" {
		return errorsmod.Wrap(ErrInvalidAddress, "empty address")
	}
	if err := coins.Validate(); err != nil {
		return errorsmod.Wrap(ErrInvalidCoins, err.Error())
	}
	l.balances[addr] = l.balances[addr].Add(coins...)
	return nil
}

// Transfer moves coins from one account to another.
func (l *Ledger) Transfer(from, to string, coins sdk.Coins) error {
	if from == "" || to == "" {
		return errorsmod.Wrapf(ErrInvalidAddress, "transfer %q -> %q", from, to)
	}
	if err := coins.Validate(); err != nil {
		return errorsmod.Wrap(ErrInvalidCoins, err.Error())
	}
	if coins.IsZero() {
		return nil
	}

	remaining, hasNeg := l.balances[from].SafeSub(coins...)
	if hasNeg {
		return errorsmod.Wrapf(ErrInsufficientFunds, "%s has %s, needs %s", from, l.balances[from], coins)
	}
	if from == to {
		return nil
	}
	l.balances[from] = remaining
	l.balances[to] = l.balances[to].Add(coins...)

	l.logger.Debug().
		Str("from", from).
		Str("to", to).
		Str("coins", coins.String()).
		Msg("Transfer")
	return nil
}

// Balance returns the amount of denom held by addr.
func (l *Ledger) Balance(addr, denom string) sdkmath.Int {
	return l.balances[addr].AmountOf(denom)
}

// Balances returns every coin held by addr.
func (l *Ledger) Balances(addr string) sdk.Coins {
	return l.balances[addr]
}

// Accounts lists the addresses with a non-zero balance, sorted.
func (l *Ledger) Accounts() []string {
	out := make([]string, 0, len(l.balances))
	for addr, coins := range l.balances {
		if !coins.IsZero() {
			out = append(out, addr)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot records the balances and returns the revision id.
func (l *Ledger) Snapshot() int {
	l.revisions = append(l.revisions, copyBalances(l.balances))
	return len(l.revisions) - 1
}

// RevertToSnapshot restores the balances recorded under id and drops later revisions.
func (l *Ledger) RevertToSnapshot(id int) {
	if id < 0 || id >= len(l.revisions) {
		l.logger.Error().Int("revision", id).Int("revisions", len(l.revisions)).Msg("Unknown ledger revision")
		return
	}
	l.balances = l.revisions[id]
	l.revisions = l.revisions[:id]
}

// DiscardSnapshot drops revision id and every later one.
func (l *Ledger) DiscardSnapshot(id int) {
	if id < 0 || id >= len(l.revisions) {
		return
	}
	l.revisions = l.revisions[:id]
}

// Coins are never mutated in place, so sharing them between revisions is safe.
func copyBalances(in map[string]sdk.Coins) map[string]sdk.Coins {
	out := make(map[string]sdk.Coins, len(in))
	for addr, coins := range in {
		out[addr] = coins
	}
	return out
}
