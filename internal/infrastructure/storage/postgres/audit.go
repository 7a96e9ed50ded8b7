package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"inventra/internal/core/id"
	"inventra/internal/domain/audit"
	"inventra/pkg/logger"
)

const auditTable = "audit_events"

// AuditSink persists audit events with zstd-compressed payloads. Recording
// is best-effort from the caller's point of view, but the sink itself
// returns real errors so failures are visible in logs.
type AuditSink struct {
	txm     *TxManager
	encoder *zstd.Encoder
}

func NewAuditSink(txm *TxManager) (*AuditSink, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &AuditSink{txm: txm, encoder: enc}, nil
}

// Record writes one audit event. A missing audit table is tolerated so the
// service keeps working against schemas provisioned without auditing.
func (s *AuditSink) Record(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	compressed := s.encoder.EncodeAll(payload, nil)

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(auditTable).
		Columns("id", "action", "actor_id", "entity_type", "entity_id", "payload", "created_at").
		Values(id.New(), event.Action, event.ActorID, event.EntityType, event.EntityID, compressed, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if err := s.exec(ctx, query, args...); err != nil {
		if IsUndefinedTable(err) {
			logger.Debug(ctx, "audit table absent, event dropped", "action", event.Action)
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// exec isolates the insert from any transaction already open in ctx. Inside
// a transaction it runs under a savepoint, so a failed insert (including
// the missing-table case) cannot leave the caller's transaction aborted.
func (s *AuditSink) exec(ctx context.Context, query string, args ...any) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		_, err := s.txm.pool.Exec(ctx, query, args...)
		return err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, query, args...); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			logger.Warn(ctx, "audit savepoint rollback failed", "error", rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}
