package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/amm"
	"github.com/elys-network/basketvault/internal/ledger"
	"github.com/elys-network/basketvault/internal/logger"
	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/vault"
)

var (
	ErrEventsNotPersisted = errors.New("batch committed but its events are not persisted yet")
	ErrUnknownToken       = errors.New("unknown token")
	ErrUnknownFeed        = errors.New("no oracle feed for token")
)

// Node runs one vault together with its simulated pool, ledger and feeds, and keeps
// the store in step with every committed batch.
type Node struct {
	logger zerolog.Logger
	mu     sync.Mutex

	vault  *vault.Vault
	pool   *amm.Pool
	ledger *ledger.Ledger
	feeds  map[string]*oracle.StaticFeed
	store  state.Store
	clock  vault.Clock

	schedule string
	unsaved  []types.Event
}

// Config holds the configuration for creating a new Node instance
type Config struct {
	Vault            *vault.Vault
	Pool             *amm.Pool
	Ledger           *ledger.Ledger
	Feeds            map[string]*oracle.StaticFeed
	Store            state.Store
	Clock            vault.Clock
	SnapshotSchedule string
}

// New creates a Node from already wired components.
func New(cfg Config) (*Node, error) {
	if err := validateNodeConfig(cfg); err != nil {
		return nil, fmt.Errorf("node configuration validation failed: %w", err)
	}

	n := &Node{
		logger:   logger.GetForComponent("node"),
		vault:    cfg.Vault,
		pool:     cfg.Pool,
		ledger:   cfg.Ledger,
		feeds:    cfg.Feeds,
		store:    cfg.Store,
		clock:    cfg.Clock,
		schedule: cfg.SnapshotSchedule,
	}
	if n.feeds == nil {
		n.feeds = map[string]*oracle.StaticFeed{}
	}

	n.logger.Info().
		Str("vault", n.vault.Address()).
		Str("schedule", n.schedule).
		Msg("Node created")
	return n, nil
}

// validateNodeConfig validates the node configuration
func validateNodeConfig(cfg Config) error {
	if cfg.Vault == nil {
		return errors.New("vault cannot be nil")
	}
	if cfg.Pool == nil {
		return errors.New("pool cannot be nil")
	}
	if cfg.Ledger == nil {
		return errors.New("ledger cannot be nil")
	}
	if cfg.Store == nil {
		return errors.New("store cannot be nil")
	}
	if cfg.Clock == nil {
		return errors.New("clock cannot be nil")
	}
	if cfg.SnapshotSchedule == "" {
		return errors.New("snapshot schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(cfg.SnapshotSchedule); err != nil {
		return fmt.Errorf("invalid snapshot schedule: %w", err)
	}
	return nil
}

// Execute runs calls as one batch and appends the events it produced to the store.
// If the store fails the batch stays committed and its events are retried with the
// next batch or snapshot.
func (n *Node) Execute(ctx context.Context, caller string, calls []vault.Call) ([]vault.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	results, err := n.vault.Multicall(caller, calls...)
	if err != nil {
		return nil, err
	}
	if err := n.flush(ctx); err != nil {
		return results, fmt.Errorf("%w: %v", ErrEventsNotPersisted, err)
	}
	return results, nil
}

func (n *Node) flush(ctx context.Context) error {
	n.unsaved = append(n.unsaved, n.vault.DrainEvents()...)
	if len(n.unsaved) == 0 {
		return nil
	}
	if err := n.store.AppendEvents(ctx, n.unsaved); err != nil {
		n.logger.Error().
			Err(err).
			Int("pending_events", len(n.unsaved)).
			Msg("Failed to persist events")
		return err
	}
	n.unsaved = nil
	return nil
}

// Swap trades against the pool on behalf of trader and settles both legs on the ledger.
func (n *Node) Swap(trader, denomIn, denomOut string, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	in, err := n.tokenIndex(denomIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	out, err := n.tokenIndex(denomOut)
	if err != nil {
		return sdkmath.Int{}, err
	}

	if err := n.vault.SyncPoolWeights(); err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to sync pool weights: %w", err)
	}

	poolRev, ledgerRev := n.pool.Snapshot(), n.ledger.Snapshot()
	amountOut, err := n.swap(trader, in, out, amountIn, minAmountOut)
	if err != nil {
		n.ledger.RevertToSnapshot(ledgerRev)
		n.pool.RevertToSnapshot(poolRev)
		return sdkmath.Int{}, err
	}
	n.ledger.DiscardSnapshot(ledgerRev)
	n.pool.DiscardSnapshot(poolRev)

	n.logger.Info().
		Str("trader", trader).
		Str("token_in", denomIn).
		Str("token_out", denomOut).
		Str("amount_in", amountIn.String()).
		Str("amount_out", amountOut.String()).
		Msg("Pool swap settled")
	return amountOut, nil
}

func (n *Node) swap(trader string, in, out int, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	amountOut, err := n.pool.Swap(in, out, amountIn, minAmountOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	tokens := n.pool.Tokens()
	pool := n.pool.Address()
	if err := n.ledger.Transfer(trader, pool, sdk.NewCoins(sdk.NewCoin(tokens[in], amountIn))); err != nil {
		return sdkmath.Int{}, err
	}
	if err := n.ledger.Transfer(pool, trader, sdk.NewCoins(sdk.NewCoin(tokens[out], amountOut))); err != nil {
		return sdkmath.Int{}, err
	}
	return amountOut, nil
}

func (n *Node) tokenIndex(denom string) (int, error) {
	for i, t := range n.pool.Tokens() {
		if t == denom {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownToken, denom)
}

// SetOraclePrice publishes a new feed answer for denom at the current time.
func (n *Node) SetOraclePrice(denom string, answer sdkmath.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	feed, ok := n.feeds[denom]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeed, denom)
	}
	if answer.IsNil() || !answer.IsPositive() {
		return fmt.Errorf("oracle answer for %s must be positive, got %s", denom, answer)
	}
	feed.Set(answer, n.clock.Now())
	n.logger.Info().Str("token", denom).Str("answer", answer.String()).Msg("Oracle price updated")
	return nil
}

// Status returns the vault state as of now, with the pool at the scheduled weights.
func (n *Node) Status() types.VaultSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.vault.SyncPoolWeights(); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to sync pool weights")
	}
	return n.vault.Snapshot()
}

// Balances returns the ledger balances of addr.
func (n *Node) Balances(addr string) sdk.Coins {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Balances(addr)
}

// Events reads stored events after afterSeq.
func (n *Node) Events(ctx context.Context, afterSeq uint64, limit int) ([]types.Event, error) {
	return n.store.Events(ctx, afterSeq, limit)
}

// Batch reads the events one batch committed.
func (n *Node) Batch(ctx context.Context, id uuid.UUID) ([]types.Event, error) {
	return n.store.EventsByBatch(ctx, id)
}

// LatestSnapshot rebuilds the newest persisted state.
func (n *Node) LatestSnapshot(ctx context.Context) (types.VaultSnapshot, error) {
	return state.Latest(ctx, n.store)
}

// Ping checks the store.
func (n *Node) Ping(ctx context.Context) error {
	return n.store.Ping(ctx)
}

// SaveSnapshot persists pending events and then a full snapshot.
func (n *Node) SaveSnapshot(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.flush(ctx); err != nil {
		return 0, err
	}
	return n.store.SaveSnapshot(ctx, n.vault.Snapshot())
}

// Restore loads the newest persisted state into the vault and pool. The simulated ledger
// is credited with what the pool and the vault account held at that point.
func (n *Node) Restore(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	s, err := state.Latest(ctx, n.store)
	if errors.Is(err, state.ErrNoSnapshot) {
		n.logger.Info().Msg("No stored state, starting a fresh vault")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to recover vault state: %w", err)
	}

	if err := n.pool.Load(s.Pool); err != nil {
		return fmt.Errorf("failed to load pool state: %w", err)
	}
	if err := n.vault.Load(s); err != nil {
		return fmt.Errorf("failed to load vault state: %w", err)
	}
	tokens := n.pool.Tokens()
	if err := n.ledger.Mint(n.pool.Address(), types.Coins(tokens, s.Pool.Balances)); err != nil {
		return err
	}
	if len(s.Fees.ManagerFeeTotal) == len(tokens) {
		if err := n.ledger.Mint(n.vault.Address(), types.Coins(tokens, s.Fees.ManagerFeeTotal)); err != nil {
			return err
		}
	}

	n.logger.Info().
		Uint64("seq", s.Seq).
		Str("phase", s.Phase.String()).
		Msg("Vault state restored")
	return nil
}

// Run persists a snapshot on the configured schedule until ctx is cancelled, then
// writes a final one.
func (n *Node) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(n.schedule, func() {
		if _, err := n.SaveSnapshot(ctx); err != nil {
			n.logger.Error().Err(err).Msg("Scheduled snapshot failed")
		}
	}); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}

	c.Start()
	n.logger.Info().Str("schedule", n.schedule).Msg("Snapshot scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	n.logger.Info().Msg("Snapshot scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := n.SaveSnapshot(shutdownCtx); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	return nil
}
