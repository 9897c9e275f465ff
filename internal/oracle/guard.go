/*

Oracle guard.

The guard cross-checks the pool's own spot price against an external feed before a
price sensitive operation is allowed to run. A feed is rejected when it is stale, when
its answer is not strictly positive or when it diverges too far from the pool.

*/

package oracle

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
)

const codespace = "oracle"

var (
	ErrOracleDisabled                      = errorsmod.Register(codespace, 2, "oracle is disabled")
	ErrOracleIsDelayedBeyondMax            = errorsmod.Register(codespace, 3, "oracle is delayed beyond max")
	ErrOraclePriceIsInvalid                = errorsmod.Register(codespace, 4, "oracle price is invalid")
	ErrOracleSpotPriceDivergenceExceedsMax = errorsmod.Register(codespace, 5, "oracle spot price divergence exceeds max")
	ErrOracleNotConfigured                 = errorsmod.Register(codespace, 6, "oracle is not configured")
	ErrInvalidOracleConfig                 = errorsmod.Register(codespace, 7, "invalid oracle config")
)

// Feed is an external price feed quoting a token in units of the numeraire.
type Feed interface {
	LatestAnswer() sdkmath.Int
	UpdatedAt() time.Time
	Decimals() uint8
}

// Config binds a feed to the bounds it must respect.
type Config struct {
	Feed              Feed
	MaxDelay          time.Duration
	MaxSpotDivergence sdkmath.LegacyDec
}

func (c Config) validate(index int) error {
	if c.Feed == nil {
		return errorsmod.Wrapf(ErrInvalidOracleConfig, "token %d has no feed", index)
	}
	if c.MaxDelay <= 0 {
		return errorsmod.Wrapf(ErrInvalidOracleConfig, "token %d: max delay must be positive", index)
	}
	if c.MaxSpotDivergence.IsNil() || !c.MaxSpotDivergence.IsPositive() {
		return errorsmod.Wrapf(ErrInvalidOracleConfig, "token %d: max spot divergence must be positive", index)
	}
	return nil
}

// Guard holds the per token oracle configuration, fixed at construction, and the
// global switch.
type Guard struct {
	numeraire int
	configs   []*Config
	enabled   bool
}

// NewGuard builds a guard for n tokens. configs maps every non-numeraire token index
// to its oracle; the numeraire is always priced at ONE. The guard starts enabled.
func NewGuard(n, numeraire int, configs map[int]Config) (*Guard, error) {
	if numeraire < 0 || numeraire >= n {
		return nil, errorsmod.Wrapf(ErrInvalidOracleConfig, "numeraire index %d out of range", numeraire)
	}
	g := &Guard{numeraire: numeraire, configs: make([]*Config, n), enabled: true}
	for i := 0; i < n; i++ {
		if i == numeraire {
			if _, ok := configs[i]; ok {
				return nil, errorsmod.Wrapf(ErrInvalidOracleConfig, "numeraire %d must not have an oracle", i)
			}
			continue
		}
		cfg, ok := configs[i]
		if !ok {
			return nil, errorsmod.Wrapf(ErrOracleNotConfigured, "token %d", i)
		}
		if err := cfg.validate(i); err != nil {
			return nil, err
		}
		c := cfg
		g.configs[i] = &c
	}
	for i := range configs {
		if i < 0 || i >= n {
			return nil, errorsmod.Wrapf(ErrInvalidOracleConfig, "token index %d out of range", i)
		}
	}
	return g, nil
}

// Numeraire returns the reference token index.
func (g *Guard) Numeraire() int { return g.numeraire }

// Enabled reports whether oracle checks are switched on.
func (g *Guard) Enabled() bool { return g.enabled }

// SetEnabled flips the global switch.
func (g *Guard) SetEnabled(enabled bool) { g.enabled = enabled }

// Price reads the feed for index after the staleness and positivity checks and returns
// it rescaled to 18 decimals.
func (g *Guard) Price(index int, now time.Time) (sdkmath.LegacyDec, error) {
	if !g.enabled {
		return sdkmath.LegacyDec{}, ErrOracleDisabled
	}
	if index == g.numeraire {
		return fixed.One(), nil
	}
	if index < 0 || index >= len(g.configs) || g.configs[index] == nil {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrOracleNotConfigured, "token %d", index)
	}
	cfg := g.configs[index]

	updated := cfg.Feed.UpdatedAt()
	if delay := now.Sub(updated); delay > cfg.MaxDelay {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrOracleIsDelayedBeyondMax, "token %d: updated %s ago, max %s", index, delay, cfg.MaxDelay)
	}
	answer := cfg.Feed.LatestAnswer()
	if answer.IsNil() || !answer.IsPositive() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrOraclePriceIsInvalid, "token %d: answer %s", index, answer)
	}
	return fixed.Rescale(answer, cfg.Feed.Decimals())
}

// Validate checks the feed for index against the pool spot price and returns the feed
// price on success.
func (g *Guard) Validate(index int, spot sdkmath.LegacyDec, now time.Time) (sdkmath.LegacyDec, error) {
	price, err := g.Price(index, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if index == g.numeraire {
		return price, nil
	}
	divergence, err := Divergence(price, spot)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if bound := g.configs[index].MaxSpotDivergence; divergence.GT(bound) {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrOracleSpotPriceDivergenceExceedsMax,
			"token %d: oracle %s, spot %s, divergence %s > %s", index, price, spot, divergence, bound)
	}
	return price, nil
}

// Prices returns the oracle price of every token, the numeraire included.
func (g *Guard) Prices(now time.Time) ([]sdkmath.LegacyDec, error) {
	out := make([]sdkmath.LegacyDec, len(g.configs))
	for i := range out {
		p, err := g.Price(i, now)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// MaxSpotDivergence returns the configured divergence bound for index.
func (g *Guard) MaxSpotDivergence(index int) sdkmath.LegacyDec {
	if index < 0 || index >= len(g.configs) || g.configs[index] == nil {
		return fixed.Zero()
	}
	return g.configs[index].MaxSpotDivergence
}

// Divergence is |price - spot| / spot.
func Divergence(price, spot sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if !spot.IsPositive() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(fixed.ErrDivisionByZero, "spot price %s", spot)
	}
	diff, err := fixed.Sub(price, spot)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixed.Quo(diff.Abs(), spot)
}
