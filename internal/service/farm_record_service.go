package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/smart-farming/internal/farm"
	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
)

// FarmRecordStore is the persistence FarmRecordService needs.
// *repository.FarmRecordRepo implements it.
type FarmRecordStore interface {
	Create(ctx context.Context, rec *model.FarmRecord) error
	GetByID(ctx context.Context, id uint64) (*model.FarmRecord, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.FarmRecord, error)
	Update(ctx context.Context, rec *model.FarmRecord) error
	DeleteByIDAndUser(ctx context.Context, id, userID uint64) error
}

// FarmRecordService implements the farm record lifecycle.  Records owned by
// another user are reported as repository.ErrNotFound unless the actor is
// an admin.
type FarmRecordService struct {
	store  FarmRecordStore
	events EventPublisher
}

// NewFarmRecordService panics on a nil store; events may be nil.
func NewFarmRecordService(store FarmRecordStore, events EventPublisher) *FarmRecordService {
	if store == nil {
		panic("nil store passed to NewFarmRecordService")
	}
	return &FarmRecordService{store: store, events: events}
}

// Create validates the submission, computes the derived metrics and stores
// the record owned by the actor.
func (s *FarmRecordService) Create(ctx context.Context, actor Actor, in farm.Input) (*model.FarmRecord, error) {
	rec, err := farm.NewRecord(actor.UserID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create farm record: %w", err)
	}
	farm.Recompute(rec)
	publish(ctx, s.events, recordEvent(queue.FarmRecordCreated, actor, rec))
	return rec, nil
}

// List returns the actor's records, newest first, with metrics recomputed
// from the raw fields.
func (s *FarmRecordService) List(ctx context.Context, actor Actor) ([]model.FarmRecord, error) {
	recs, err := s.store.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list farm records: %w", err)
	}
	for i := range recs {
		farm.Recompute(&recs[i])
	}
	return recs, nil
}

// Get returns one record visible to the actor.
func (s *FarmRecordService) Get(ctx context.Context, actor Actor, id uint64) (*model.FarmRecord, error) {
	rec, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	farm.Recompute(rec)
	return rec, nil
}

// Update merges the submission onto the stored record, validates the
// result, recomputes the metrics and persists.  The owner never changes.
// Concurrent updates are last-write-wins.
func (s *FarmRecordService) Update(ctx context.Context, actor Actor, id uint64, in farm.Input) (*model.FarmRecord, error) {
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	merged, err := farm.Merge(*existing, in)
	if err != nil {
		return nil, err
	}
	merged.ID, merged.UserID = existing.ID, existing.UserID
	if err := s.store.Update(ctx, merged); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update farm record %d: %w", id, err)
	}
	farm.Recompute(merged)
	publish(ctx, s.events, recordEvent(queue.FarmRecordUpdated, actor, merged))
	return merged, nil
}

// Delete removes a record visible to the actor.  Deletion is permanent.
func (s *FarmRecordService) Delete(ctx context.Context, actor Actor, id uint64) error {
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteByIDAndUser(ctx, id, existing.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete farm record %d: %w", id, err)
	}
	farm.Recompute(existing)
	publish(ctx, s.events, recordEvent(queue.FarmRecordDeleted, actor, existing))
	return nil
}

// Summary aggregates all of the actor's records.
func (s *FarmRecordService) Summary(ctx context.Context, actor Actor) (farm.Summary, error) {
	recs, err := s.store.ListByUser(ctx, actor.UserID)
	if err != nil {
		return farm.Summary{}, fmt.Errorf("summarize farm records: %w", err)
	}
	return farm.Summarize(recs), nil
}

func (s *FarmRecordService) load(ctx context.Context, actor Actor, id uint64) (*model.FarmRecord, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load farm record %d: %w", id, err)
	}
	if !actor.owns(rec.UserID) {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func recordEvent(typ string, actor Actor, rec *model.FarmRecord) queue.Event {
	return queue.Event{
		Type:     typ,
		ActorID:  actor.UserID,
		OwnerID:  rec.UserID,
		EntityID: rec.ID,
		Record: &queue.FarmRecordPayload{
			CropName:     rec.CropName,
			Season:       string(rec.Season),
			Revenue:      rec.Revenue,
			NetProfit:    rec.NetProfit,
			ProfitMargin: rec.ProfitMargin,
		},
	}
}
