// Package audit appends immutable entries for every mutation of users or
// role associations. The recorder exposes no update or delete: append-only
// is structural, not conventional.
package audit

import (
	"context"

	"user-directory-service/internal/domain"
	"user-directory-service/internal/store"
)

type Recorder struct {
	store *store.Store
}

func NewRecorder(s *store.Store) *Recorder { return &Recorder{store: s} }

// Record appends one entry through tx, which is the transaction of the
// mutation being described. The actor's username is resolved and denormalized
// at write time; log_id comes from the auto-increment key.
func (r *Recorder) Record(ctx context.Context, tx *store.Store, table, op string, affectedUserID, actorID int64) (*domain.AuditEntry, error) {
	actor, err := tx.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	entry := &domain.AuditEntry{
		Table:          table,
		Operation:      op,
		AffectedUserID: affectedUserID,
		ActingUsername: actor.Username,
	}
	if err := tx.DB().WithContext(ctx).Create(entry).Error; err != nil {
		return nil, domain.Storage("append audit entry", err)
	}
	return entry, nil
}

// List returns entries ordered by log_id descending. beforeLogID paginates:
// zero means start from the newest entry. Missing limits default to 50;
// oversized ones clamp to the 500 ceiling.
func (r *Recorder) List(ctx context.Context, limit int, beforeLogID int64) ([]domain.AuditEntry, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	q := r.store.DB().WithContext(ctx).Order("log_id DESC").Limit(limit)
	if beforeLogID > 0 {
		q = q.Where("log_id < ?", beforeLogID)
	}
	var entries []domain.AuditEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, domain.Storage("list audit entries", err)
	}
	return entries, nil
}
