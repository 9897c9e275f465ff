package node

import (
	"context"
	"fmt"

	"github.com/elys-network/basketvault/internal/amm"
	"github.com/elys-network/basketvault/internal/config"
	"github.com/elys-network/basketvault/internal/ledger"
	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/validator"
	"github.com/elys-network/basketvault/internal/vault"
)

// Bootstrap wires a node from a vault definition and restores whatever state the store
// already holds.
func Bootstrap(ctx context.Context, def *config.VaultDefinition, store state.Store, clock vault.Clock, schedule string) (*Node, error) {
	params, err := def.VaultParams()
	if err != nil {
		return nil, err
	}
	swapFee, err := def.SwapFee()
	if err != nil {
		return nil, err
	}
	pool, err := amm.NewPool(def.Pool.Address, def.Tokens, swapFee)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	l := ledger.NewLedger()
	balances, err := def.AccountBalances()
	if err != nil {
		return nil, err
	}
	for addr, coins := range balances {
		if err := l.Mint(addr, coins); err != nil {
			return nil, fmt.Errorf("failed to fund %s: %w", addr, err)
		}
	}

	feeds := make(map[string]*oracle.StaticFeed, len(def.Oracles))
	oracles := make(map[int]oracle.Config, len(def.Oracles))
	for i, denom := range def.Tokens {
		o, ok := def.Oracles[denom]
		if !ok {
			continue
		}
		answer, divergence, err := o.Parse()
		if err != nil {
			return nil, fmt.Errorf("oracle %s: %w", denom, err)
		}
		feed := oracle.NewStaticFeed(answer, clock.Now(), o.Decimals)
		feeds[denom] = feed
		oracles[i] = oracle.Config{
			Feed:              feed,
			MaxDelay:          o.MaxDelay,
			MaxSpotDivergence: divergence,
		}
	}

	v, err := buildValidator(def.Validator, pool)
	if err != nil {
		return nil, err
	}

	vlt, err := vault.NewVault(vault.Config{
		Params:    params,
		Tokens:    def.Tokens,
		Address:   def.Address,
		Owner:     def.Owner,
		Manager:   def.Manager,
		Oracles:   oracles,
		Pool:      pool,
		Ledger:    l,
		Validator: v,
		Clock:     clock,
	})
	if err != nil {
		return nil, err
	}

	n, err := New(Config{
		Vault:            vlt,
		Pool:             pool,
		Ledger:           l,
		Feeds:            feeds,
		Store:            store,
		Clock:            clock,
		SnapshotSchedule: schedule,
	})
	if err != nil {
		return nil, err
	}
	if err := n.Restore(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func buildValidator(def config.ValidatorDefinition, pool *amm.Pool) (vault.Validator, error) {
	switch def.Kind {
	case config.ValidatorStatic:
		allowances, err := def.ParseAllowances()
		if err != nil {
			return nil, err
		}
		static, err := validator.NewStatic(allowances)
		if err != nil {
			return nil, err
		}
		return static, nil
	case config.ValidatorFractional:
		fraction, err := def.ParseFraction()
		if err != nil {
			return nil, err
		}
		fractional, err := validator.NewFractional(pool, fraction)
		if err != nil {
			return nil, err
		}
		return fractional, nil
	default:
		return validator.Permissive{}, nil
	}
}
