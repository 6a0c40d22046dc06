// Package trail records the append-only activity history of audits.
//
// Entries are produced by dispatcher handlers (see Recorder), persisted
// through the Store, fanned out to a capped Redis feed for cheap recent-reads,
// and shipped to Kafka by the outbox worker. Losing a feed or Kafka write
// never affects the originating operation.
package trail

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// Entry is one recorded activity. Payload carries the originating event
// verbatim so consumers can decode by EventType.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	AuditID     id.AuditID      `json:"audit_id"`
	EventType   string          `json:"event_type"`
	ActorID     id.ActorID      `json:"actor_id"`
	Payload     json.RawMessage `json:"payload"`
	RequestID   string          `json:"request_id,omitempty"`
	ClientIP    string          `json:"client_ip,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}
