package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
)

const createRoundTripsTable = `
CREATE TABLE IF NOT EXISTS roundtrips (
	signature    String,
	timestamp    DateTime64(3),
	pair         LowCardinality(String),
	base_mint    String,
	target_mint  String,
	amount_in    UInt64,
	leg_one_out  UInt64,
	leg_two_in   UInt64,
	leg_two_out  UInt64,
	slippage_bps UInt16,
	status       LowCardinality(String),
	slot         UInt64,
	fee          UInt64,
	error        String
) ENGINE = MergeTree
ORDER BY (timestamp, signature)`

const insertRoundTrip = `
INSERT INTO roundtrips (
	signature, timestamp, pair, base_mint, target_mint, amount_in,
	leg_one_out, leg_two_in, leg_two_out, slippage_bps, status, slot, fee, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type ClickHouseConfig struct {
	Addr        string
	Database    string
	Username    string
	Password    string
	DialTimeout time.Duration
	Logger      *logrus.Logger
}

// ClickHouseStore is the long-term history of round trips.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("clickhouse addr is required")
	}
	if cfg.Database == "" {
		cfg.Database = "solana"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to clickhouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the roundtrips table if it does not exist.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createRoundTripsTable); err != nil {
		return fmt.Errorf("failed to create roundtrips table: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error {
	err := c.conn.Exec(ctx, insertRoundTrip,
		ev.Signature,
		ev.Timestamp,
		ev.Pair,
		ev.BaseMint,
		ev.TargetMint,
		ev.AmountIn,
		ev.LegOneOut,
		ev.LegTwoIn,
		ev.LegTwoOut,
		ev.SlippageBps,
		ev.Status,
		ev.Slot,
		ev.Fee,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round trip: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Record(ctx context.Context, ev *models.RoundTripEvent) error {
	return c.InsertRoundTrip(ctx, ev)
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
