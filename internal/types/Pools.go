/*

View of the external weighted pool as seen by the vault at the end of a call.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// PoolState is the pool side of a vault snapshot.
type PoolState struct {
	Address    string              `json:"address"`
	Balances   []sdkmath.Int       `json:"balances"`
	Weights    []sdkmath.LegacyDec `json:"weights"`
	SwapFee    sdkmath.LegacyDec   `json:"swap_fee"`
	PublicSwap bool                `json:"public_swap"`
}
