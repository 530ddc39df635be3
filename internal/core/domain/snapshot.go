package domain

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SnapshotKey addresses the single snapshot slot of one entity.
//
// Kind and EntityID are kept apart so that no choice of identity can
// collide with another kind's key.
type SnapshotKey struct {
	Kind     string
	EntityID string
}

// HashParts returns the key components for sharded map hashing.
func (k SnapshotKey) HashParts() []string {
	return []string{k.Kind, k.EntityID}
}

// String renders the key for logs.
func (k SnapshotKey) String() string {
	return k.Kind + "/" + strconv.Quote(k.EntityID)
}

// Snapshot is the serialized state of an entity captured immediately before
// it was mutated.
type Snapshot struct {
	Kind     string `json:"entity_kind"`
	EntityID string `json:"entity_id"`

	// Data is the serialized entity. Opaque to storage.
	Data []byte `json:"data"`

	// CaptureID identifies this capture in logs. Format: ULID.
	CaptureID string `json:"capture_id"`

	// CapturedAt is the capture timestamp (Unix milliseconds).
	CapturedAt int64 `json:"captured_at"`
}

// NewSnapshot creates a snapshot of data for the given entity.
func NewSnapshot(kind, entityID string, data []byte) *Snapshot {
	now := time.Now()
	return &Snapshot{
		Kind:       kind,
		EntityID:   entityID,
		Data:       data,
		CaptureID:  ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		CapturedAt: now.UnixMilli(),
	}
}

// Key returns the snapshot's storage key.
func (s *Snapshot) Key() SnapshotKey {
	return SnapshotKey{Kind: s.Kind, EntityID: s.EntityID}
}

// Validate checks that the snapshot is addressable.
func (s *Snapshot) Validate() error {
	var violations []string

	if s.Kind == "" {
		violations = append(violations, "entity_kind is required")
	}
	if s.EntityID == "" {
		violations = append(violations, "entity_id is required")
	}

	if len(violations) > 0 {
		return ErrSnapshotValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone creates a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	clone := *s
	if s.Data != nil {
		clone.Data = append([]byte(nil), s.Data...)
	}
	return &clone
}

// CapturedAtTime returns CapturedAt as time.Time.
func (s *Snapshot) CapturedAtTime() time.Time {
	return time.UnixMilli(s.CapturedAt)
}
