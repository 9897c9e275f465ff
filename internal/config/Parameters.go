/*

This file contains the default parameters for a vault.

A vault definition only has to name what differs from these values. They assume a numeraire
with 6 decimals (uusdc) and a basket whose value sits in the thousands to millions of units.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/vault"
)

// DefaultVaultParameters is the baseline every vault definition starts from.
// NumeraireIndex is always replaced by the definition's numeraire.
var DefaultVaultParameters = vault.Params{
	// --- Management Fee ---
	ManagementFee: sdkmath.LegacyNewDecWithPrec(1, 10), // 1e-10 of every holding per second.
	// Rationale: Roughly 0.32% a year. Low enough that an honest manager never needs to
	// touch the basket to cover costs, high enough to be worth claiming.

	MinFeeDuration: 4 * 7 * 24 * time.Hour, // The owner pays at least four weeks of fees.
	// Rationale: Stops an owner from hiring a manager, using the weights they set up and
	// finalizing the next day without paying for the work.

	NoticePeriod: 0, // Finalization may run straight away.
	// Rationale: Simulation vaults have no outside depositors to warn. Production vaults
	// should set a notice period so the manager can wind positions down.

	// --- Weight Schedule ---
	MinWeightChangeDuration: 4 * time.Hour, // A weight update spans at least four hours.
	// Rationale: Spreading the move over many blocks lets arbitrageurs rebalance the pool
	// in small steps instead of one large, extractable jump.

	MaxWeightChangeRatio: sdkmath.LegacyNewDecWithPrec(1, 2), // At most 1% relative change per second.
	// Rationale: Bounds how fast any single weight can move so the pool cannot be used to
	// dump value into one token faster than the market can follow.

	MinWeight: sdkmath.LegacyNewDecWithPrec(1, 2), // No token drops below 1% weight.
	// Rationale: A token at near zero weight makes the pool price it at extremes,
	// which is an easy arbitrage target.

	// --- Oracle Nudging ---
	MinSignificantDepositValue: sdkmath.LegacyNewDec(20_000_000), // 20 numeraire units.
	// Rationale: Smaller deposits barely move the weights, so pricing them by
	// pro-rata holdings alone is safe and saves the oracle round trip.

	MinReliableVaultValue: sdkmath.LegacyNewDec(1_000_000), // 1 numeraire unit.
	// Rationale: Below this value rounding dominates the pool price. Crossing it always
	// re-anchors the weights to the oracle.

	// --- Swap Fee ---
	MinSwapFee: sdkmath.LegacyNewDecWithPrec(1, 6), // 0.0001%.
	MaxSwapFee: sdkmath.LegacyNewDecWithPrec(1, 1), // 10%.
	// Rationale: The pool must charge something so arbitrage pays for itself, and no
	// manager should be able to price traders out entirely.

	MaxSwapFeeChange: sdkmath.LegacyNewDecWithPrec(5, 3), // At most 0.5 percentage points per change.
	SwapFeeCooldown:  time.Minute,                        // One change per minute.
	// Rationale: Together these stop a manager from sandwiching a trade with a fee spike.
}

const (
	// DefaultPoolSwapFee is the swap fee a pool starts with.
	DefaultPoolSwapFee = "0.003"

	// DefaultOracleMaxDelay is how old a feed answer may be before it is rejected.
	DefaultOracleMaxDelay = time.Hour

	// DefaultOracleMaxSpotDivergence is how far the pool price may drift from the feed.
	DefaultOracleMaxSpotDivergence = "0.1"

	// DefaultOracleDecimals is the precision feeds report answers in.
	DefaultOracleDecimals uint8 = 8

	// DefaultSnapshotSchedule persists a snapshot every ten minutes.
	DefaultSnapshotSchedule = "@every 10m"
)
