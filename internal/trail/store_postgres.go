package trail

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// PostgresStore persists trail entries. The published_at column makes the
// table an outbox: the Kafka worker selects NULL rows and stamps them after a
// confirmed produce.
//
// Expected schema:
//
//	CREATE TABLE trail_entries (
//	    id           UUID PRIMARY KEY,
//	    audit_id     UUID NOT NULL,
//	    event_type   TEXT NOT NULL,
//	    actor_id     UUID NOT NULL,
//	    payload      JSONB NOT NULL,
//	    request_id   TEXT NOT NULL DEFAULT '',
//	    client_ip    TEXT NOT NULL DEFAULT '',
//	    user_agent   TEXT NOT NULL DEFAULT '',
//	    occurred_at  TIMESTAMPTZ NOT NULL,
//	    published_at TIMESTAMPTZ
//	);
//	CREATE INDEX trail_entries_audit_idx ON trail_entries (audit_id, occurred_at DESC);
//	CREATE INDEX trail_entries_outbox_idx ON trail_entries (occurred_at) WHERE published_at IS NULL;
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a Postgres-backed trail store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO trail_entries (id, audit_id, event_type, actor_id, payload, request_id, client_ip, user_agent, occurred_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.AuditID),
		entry.EventType,
		uuid.UUID(entry.ActorID),
		[]byte(entry.Payload),
		entry.RequestID,
		entry.ClientIP,
		entry.UserAgent,
		entry.OccurredAt,
		entry.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trail entry: %w", err)
	}
	return nil
}

// ListByAudit returns the newest entries for the audit, most recent first.
func (s *PostgresStore) ListByAudit(ctx context.Context, auditID id.AuditID, limit int) ([]Entry, error) {
	query := `
		SELECT id, audit_id, event_type, actor_id, payload, request_id, client_ip, user_agent, occurred_at, published_at
		FROM trail_entries
		WHERE audit_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(auditID), limit)
	if err != nil {
		return nil, fmt.Errorf("query trail entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Unpublished returns up to limit unshipped entries, oldest first.
func (s *PostgresStore) Unpublished(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, audit_id, event_type, actor_id, payload, request_id, client_ip, user_agent, occurred_at, published_at
		FROM trail_entries
		WHERE published_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished trail entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// MarkPublished stamps the given entries.
func (s *PostgresStore) MarkPublished(ctx context.Context, entryIDs []uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	query := `UPDATE trail_entries SET published_at = $1 WHERE id = ANY($2::uuid[])`
	ids := make([]string, len(entryIDs))
	for i, entryID := range entryIDs {
		ids[i] = entryID.String()
	}
	if _, err := s.db.ExecContext(ctx, query, time.Now(), ids); err != nil {
		return fmt.Errorf("mark trail entries published: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			auditID     uuid.UUID
			actorID     uuid.UUID
			payload     []byte
			publishedAt sql.NullTime
		)
		err := rows.Scan(&entry.ID, &auditID, &entry.EventType, &actorID, &payload,
			&entry.RequestID, &entry.ClientIP, &entry.UserAgent, &entry.OccurredAt, &publishedAt)
		if err != nil {
			return nil, fmt.Errorf("scan trail entry: %w", err)
		}
		entry.AuditID = id.AuditID(auditID)
		entry.ActorID = id.ActorID(actorID)
		entry.Payload = payload
		if publishedAt.Valid {
			stamp := publishedAt.Time
			entry.PublishedAt = &stamp
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trail entries: %w", err)
	}
	return entries, nil
}
