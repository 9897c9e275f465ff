package vault

import (
	"bytes"
	"encoding/json"
	"sort"

	errorsmod "cosmossdk.io/errors"
)

var callFactories = map[string]func() Call{
	InitialDeposit{}.Name():                            func() Call { return &InitialDeposit{} },
	Deposit{}.Name():                                   func() Call { return &Deposit{} },
	DepositRiskingArbitrage{}.Name():                   func() Call { return &DepositRiskingArbitrage{} },
	DepositIfBalanceUnchanged{}.Name():                 func() Call { return &DepositIfBalanceUnchanged{} },
	DepositRiskingArbitrageIfBalanceUnchanged{}.Name(): func() Call { return &DepositRiskingArbitrageIfBalanceUnchanged{} },
	Withdraw{}.Name():                                  func() Call { return &Withdraw{} },
	WithdrawIfBalanceUnchanged{}.Name():                func() Call { return &WithdrawIfBalanceUnchanged{} },
	UpdateWeightsGradually{}.Name():                    func() Call { return &UpdateWeightsGradually{} },
	CancelWeightUpdates{}.Name():                       func() Call { return &CancelWeightUpdates{} },
	EnableTradingWithWeights{}.Name():                  func() Call { return &EnableTradingWithWeights{} },
	EnableTradingWithOraclePrice{}.Name():              func() Call { return &EnableTradingWithOraclePrice{} },
	EnableTradingRiskingArbitrage{}.Name():             func() Call { return &EnableTradingRiskingArbitrage{} },
	DisableTrading{}.Name():                            func() Call { return &DisableTrading{} },
	SetSwapFee{}.Name():                                func() Call { return &SetSwapFee{} },
	SetOraclesEnabled{}.Name():                         func() Call { return &SetOraclesEnabled{} },
	ClaimManagerFees{}.Name():                          func() Call { return &ClaimManagerFees{} },
	InitiateFinalization{}.Name():                      func() Call { return &InitiateFinalization{} },
	Finalize{}.Name():                                  func() Call { return &Finalize{} },
	SetManager{}.Name():                                func() Call { return &SetManager{} },
	TransferOwnership{}.Name():                         func() Call { return &TransferOwnership{} },
	AcceptOwnership{}.Name():                           func() Call { return &AcceptOwnership{} },
	CancelOwnershipTransfer{}.Name():                   func() Call { return &CancelOwnershipTransfer{} },
	Sweep{}.Name():                                     func() Call { return &Sweep{} },
}

// CallNames lists every call the vault accepts, sorted.
func CallNames() []string {
	names := make([]string, 0, len(callFactories))
	for name := range callFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeCall builds a call from its wire name and JSON parameters.
func DecodeCall(method string, params json.RawMessage) (Call, error) {
	factory, ok := callFactories[method]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownCall, "method %q", method)
	}
	call := factory()
	if trimmed := bytes.TrimSpace(params); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(call); err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidCallParams, "%s: %v", method, err)
		}
	}
	return call, nil
}
