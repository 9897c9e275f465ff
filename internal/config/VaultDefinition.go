package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"gopkg.in/yaml.v3"

	"github.com/elys-network/basketvault/internal/vault"
)

const (
	ValidatorPermissive = "permissive"
	ValidatorStatic     = "static"
	ValidatorFractional = "fractional"
)

// VaultDefinition describes the vault the daemon runs, loaded from YAML.
type VaultDefinition struct {
	Address   string   `yaml:"address"`
	Owner     string   `yaml:"owner"`
	Manager   string   `yaml:"manager"`
	Tokens    []string `yaml:"tokens"`
	Numeraire string   `yaml:"numeraire"`

	Pool struct {
		Address string `yaml:"address"`
		SwapFee string `yaml:"swap_fee"`
	} `yaml:"pool"`

	Params    ParamOverrides              `yaml:"params"`
	Oracles   map[string]OracleDefinition `yaml:"oracles"`
	Validator ValidatorDefinition         `yaml:"validator"`

	// Accounts funds addresses in the simulated ledger, as coin strings like "100uatom,5uusdc".
	Accounts map[string]string `yaml:"accounts"`
}

// ParamOverrides replaces individual DefaultVaultParameters. Unset fields keep the default.
type ParamOverrides struct {
	ManagementFee              string         `yaml:"management_fee"`
	MinFeeDuration             *time.Duration `yaml:"min_fee_duration"`
	NoticePeriod               *time.Duration `yaml:"notice_period"`
	MinWeightChangeDuration    *time.Duration `yaml:"min_weight_change_duration"`
	MaxWeightChangeRatio       string         `yaml:"max_weight_change_ratio"`
	MinWeight                  string         `yaml:"min_weight"`
	MinSignificantDepositValue string         `yaml:"min_significant_deposit_value"`
	MinReliableVaultValue      string         `yaml:"min_reliable_vault_value"`
	MinSwapFee                 string         `yaml:"min_swap_fee"`
	MaxSwapFee                 string         `yaml:"max_swap_fee"`
	MaxSwapFeeChange           string         `yaml:"max_swap_fee_change"`
	SwapFeeCooldown            *time.Duration `yaml:"swap_fee_cooldown"`
}

// OracleDefinition configures the feed of one non-numeraire token.
type OracleDefinition struct {
	Answer            string        `yaml:"answer"`
	Decimals          uint8         `yaml:"decimals"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	MaxSpotDivergence string        `yaml:"max_spot_divergence"`
}

// ValidatorDefinition selects the withdrawal validator.
type ValidatorDefinition struct {
	Kind       string   `yaml:"kind"`
	Fraction   string   `yaml:"fraction"`
	Allowances []string `yaml:"allowances"`
}

// LoadVaultDefinition reads a definition from a YAML file, then applies environment
// variable overrides and defaults.
func LoadVaultDefinition(path string) (*VaultDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vault definition: %w", err)
	}
	return ParseVaultDefinition(data)
}

// ParseVaultDefinition decodes a definition. Unknown keys are rejected.
func ParseVaultDefinition(data []byte) (*VaultDefinition, error) {
	def := &VaultDefinition{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(def); err != nil {
		return nil, fmt.Errorf("parse vault definition: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("VAULT_OWNER"); v != "" {
		def.Owner = v
	}
	if v := os.Getenv("VAULT_MANAGER"); v != "" {
		def.Manager = v
	}

	// Defaults
	if def.Address == "" {
		def.Address = "vault"
	}
	if def.Pool.Address == "" {
		def.Pool.Address = "pool"
	}
	if def.Pool.SwapFee == "" {
		def.Pool.SwapFee = DefaultPoolSwapFee
	}
	if def.Validator.Kind == "" {
		def.Validator.Kind = ValidatorPermissive
	}
	for denom, o := range def.Oracles {
		if o.Decimals == 0 {
			o.Decimals = DefaultOracleDecimals
		}
		if o.MaxDelay == 0 {
			o.MaxDelay = DefaultOracleMaxDelay
		}
		if o.MaxSpotDivergence == "" {
			o.MaxSpotDivergence = DefaultOracleMaxSpotDivergence
		}
		def.Oracles[denom] = o
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Validate checks that the definition names a runnable vault.
func (d *VaultDefinition) Validate() error {
	if d.Owner == "" {
		return errors.New("owner is required")
	}
	if d.Manager == "" {
		return errors.New("manager is required")
	}
	if len(d.Tokens) < 2 {
		return fmt.Errorf("at least 2 tokens are required, got %d", len(d.Tokens))
	}
	if !sort.StringsAreSorted(d.Tokens) {
		return fmt.Errorf("tokens must be sorted: %v", d.Tokens)
	}
	if _, err := d.NumeraireIndex(); err != nil {
		return err
	}
	for denom := range d.Oracles {
		if d.index(denom) < 0 {
			return fmt.Errorf("oracle for unknown token %s", denom)
		}
		if denom == d.Numeraire {
			return fmt.Errorf("numeraire %s cannot have an oracle", denom)
		}
	}
	for _, denom := range d.Tokens {
		if _, ok := d.Oracles[denom]; !ok && denom != d.Numeraire {
			return fmt.Errorf("token %s has no oracle", denom)
		}
	}
	switch d.Validator.Kind {
	case ValidatorPermissive:
	case ValidatorFractional:
		if d.Validator.Fraction == "" {
			return errors.New("validator.fraction is required for the fractional validator")
		}
	case ValidatorStatic:
		if len(d.Validator.Allowances) != len(d.Tokens) {
			return fmt.Errorf("validator.allowances needs %d entries, got %d", len(d.Tokens), len(d.Validator.Allowances))
		}
	default:
		return fmt.Errorf("unknown validator kind %q", d.Validator.Kind)
	}
	return nil
}

// NumeraireIndex locates the numeraire in the token list.
func (d *VaultDefinition) NumeraireIndex() (int, error) {
	if d.Numeraire == "" {
		return 0, errors.New("numeraire is required")
	}
	i := d.index(d.Numeraire)
	if i < 0 {
		return 0, fmt.Errorf("numeraire %s is not one of the tokens", d.Numeraire)
	}
	return i, nil
}

func (d *VaultDefinition) index(denom string) int {
	for i, t := range d.Tokens {
		if t == denom {
			return i
		}
	}
	return -1
}

// VaultParams applies the overrides to DefaultVaultParameters and validates the result.
func (d *VaultDefinition) VaultParams() (vault.Params, error) {
	p := DefaultVaultParameters
	numeraire, err := d.NumeraireIndex()
	if err != nil {
		return vault.Params{}, err
	}
	p.NumeraireIndex = numeraire

	o := d.Params
	for _, field := range []struct {
		name  string
		value string
		into  *sdkmath.LegacyDec
	}{
		{"management_fee", o.ManagementFee, &p.ManagementFee},
		{"max_weight_change_ratio", o.MaxWeightChangeRatio, &p.MaxWeightChangeRatio},
		{"min_weight", o.MinWeight, &p.MinWeight},
		{"min_significant_deposit_value", o.MinSignificantDepositValue, &p.MinSignificantDepositValue},
		{"min_reliable_vault_value", o.MinReliableVaultValue, &p.MinReliableVaultValue},
		{"min_swap_fee", o.MinSwapFee, &p.MinSwapFee},
		{"max_swap_fee", o.MaxSwapFee, &p.MaxSwapFee},
		{"max_swap_fee_change", o.MaxSwapFeeChange, &p.MaxSwapFeeChange},
	} {
		if field.value == "" {
			continue
		}
		v, err := sdkmath.LegacyNewDecFromStr(field.value)
		if err != nil {
			return vault.Params{}, fmt.Errorf("params.%s: %w", field.name, err)
		}
		*field.into = v
	}
	for _, field := range []struct {
		value *time.Duration
		into  *time.Duration
	}{
		{o.MinFeeDuration, &p.MinFeeDuration},
		{o.NoticePeriod, &p.NoticePeriod},
		{o.MinWeightChangeDuration, &p.MinWeightChangeDuration},
		{o.SwapFeeCooldown, &p.SwapFeeCooldown},
	} {
		if field.value != nil {
			*field.into = *field.value
		}
	}

	if err := p.Validate(len(d.Tokens)); err != nil {
		return vault.Params{}, err
	}
	return p, nil
}

// SwapFee parses the pool's starting swap fee.
func (d *VaultDefinition) SwapFee() (sdkmath.LegacyDec, error) {
	fee, err := sdkmath.LegacyNewDecFromStr(d.Pool.SwapFee)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("pool.swap_fee: %w", err)
	}
	return fee, nil
}

// AccountBalances parses the funded accounts.
func (d *VaultDefinition) AccountBalances() (map[string]sdk.Coins, error) {
	out := make(map[string]sdk.Coins, len(d.Accounts))
	for addr, coins := range d.Accounts {
		parsed, err := sdk.ParseCoinsNormalized(coins)
		if err != nil {
			return nil, fmt.Errorf("accounts.%s: %w", addr, err)
		}
		out[addr] = parsed
	}
	return out, nil
}

// Parse converts the definition's strings into amounts.
func (o OracleDefinition) Parse() (answer sdkmath.Int, divergence sdkmath.LegacyDec, err error) {
	answer, ok := sdkmath.NewIntFromString(o.Answer)
	if !ok {
		return sdkmath.Int{}, sdkmath.LegacyDec{}, fmt.Errorf("oracle answer %q is not an integer", o.Answer)
	}
	divergence, err = sdkmath.LegacyNewDecFromStr(o.MaxSpotDivergence)
	if err != nil {
		return sdkmath.Int{}, sdkmath.LegacyDec{}, fmt.Errorf("oracle max_spot_divergence: %w", err)
	}
	return answer, divergence, nil
}

// ParseFraction reads the fractional validator's share.
func (v ValidatorDefinition) ParseFraction() (sdkmath.LegacyDec, error) {
	f, err := sdkmath.LegacyNewDecFromStr(v.Fraction)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("validator.fraction: %w", err)
	}
	return f, nil
}

// ParseAllowances reads the static validator's per token allowances.
func (v ValidatorDefinition) ParseAllowances() ([]sdkmath.Int, error) {
	out := make([]sdkmath.Int, len(v.Allowances))
	for i, a := range v.Allowances {
		amount, ok := sdkmath.NewIntFromString(a)
		if !ok {
			return nil, fmt.Errorf("validator.allowances[%d] %q is not an integer", i, a)
		}
		out[i] = amount
	}
	return out, nil
}
