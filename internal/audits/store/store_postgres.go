package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"attest/internal/audits/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// Postgres persists the audit aggregate as one row per audit: hot columns for
// lookups plus the full aggregate document as JSONB. The version column is the
// compare-and-swap guard; every Save increments it.
//
// Expected schema:
//
//	CREATE TABLE audits (
//	    id              UUID PRIMARY KEY,
//	    organization_id UUID NOT NULL,
//	    lead_auditor_id UUID NOT NULL,
//	    status          TEXT NOT NULL,
//	    version         BIGINT NOT NULL,
//	    document        JSONB NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres builds a Postgres-backed audit store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts a new audit at version 1.
func (s *Postgres) Create(ctx context.Context, audit *models.Audit) error {
	document, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("marshal audit document: %w", err)
	}

	query := `
		INSERT INTO audits (id, organization_id, lead_auditor_id, status, version, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(audit.ID),
		uuid.UUID(audit.OrganizationID),
		uuid.UUID(audit.LeadAuditorID),
		string(audit.Status),
		document,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// Load reads the current aggregate document and its version.
func (s *Postgres) Load(ctx context.Context, auditID id.AuditID) (*models.Audit, uint64, error) {
	query := `SELECT document, version FROM audits WHERE id = $1`

	var (
		document []byte
		version  uint64
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(auditID)).Scan(&document, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sentinel.ErrNotFound
		}
		return nil, 0, fmt.Errorf("query audit: %w", err)
	}

	var audit models.Audit
	if err := json.Unmarshal(document, &audit); err != nil {
		return nil, 0, fmt.Errorf("unmarshal audit document: %w", err)
	}
	return &audit, version, nil
}

// Save performs the compare-and-swap write. A zero-row update means either the
// audit vanished or another writer bumped the version first; the two cases are
// told apart with a follow-up existence check.
func (s *Postgres) Save(ctx context.Context, audit *models.Audit, expectedVersion uint64) error {
	document, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("marshal audit document: %w", err)
	}

	query := `
		UPDATE audits
		SET status = $1, document = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		string(audit.Status),
		document,
		audit.UpdatedAt,
		uuid.UUID(audit.ID),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update audit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM audits WHERE id = $1)`, uuid.UUID(audit.ID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check audit existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrVersionConflict
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE without
// binding this package to a specific driver error type.
func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var state sqlState
	if errors.As(err, &state) {
		return state.SQLState() == "23505"
	}
	return false
}
