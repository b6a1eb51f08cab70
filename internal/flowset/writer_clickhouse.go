package flowset

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"s1apflow/internal/config"
	"s1apflow/internal/core/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS ue_session_flows (
    BuiltAt    DateTime,
    EnbUeID    Nullable(Int64),
    MmeUeID    Nullable(Int64),
    StartTime  Nullable(Float64),
    EndTime    Nullable(Float64),
    FrameCount UInt32,
    Frames     Array(UInt32)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(BuiltAt)
ORDER BY (BuiltAt);
`

// ClickHouseWriter implements the Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the flow table
// exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Connected to ClickHouse and ensured ue_session_flows exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

// Write batch-inserts one row per flow.
func (w *ClickHouseWriter) Write(ctx context.Context, flows []*model.Flow) error {
	if len(flows) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO ue_session_flows")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	builtAt := time.Now().UTC()
	for _, flow := range flows {
		frames := make([]uint32, len(flow.Frames))
		for i, n := range flow.Frames {
			frames[i] = uint32(n)
		}
		err = batch.Append(
			builtAt,
			flow.EnbUeID,
			flow.MmeUeID,
			flow.StartTime,
			flow.EndTime,
			uint32(len(flow.Frames)),
			frames,
		)
		if err != nil {
			return fmt.Errorf("failed to append flow to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	log.Printf("Wrote %d flows to ClickHouse", len(flows))
	return nil
}
