package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/validation"
)

// AdvisoryStore is implemented by *repository.AdvisoryRepo.
type AdvisoryStore interface {
	Create(ctx context.Context, a *model.AdvisoryRequest) error
	ListByUser(ctx context.Context, userID uint64) ([]model.AdvisoryRequest, error)
	ListAll(ctx context.Context, status model.AdvisoryStatus) ([]model.AdvisoryRequest, error)
	Resolve(ctx context.Context, id, adminID uint64, response string, at time.Time) (*model.AdvisoryRequest, error)
}

// AdvisoryService lets farmers ask crop questions and admins answer them.
type AdvisoryService struct {
	store  AdvisoryStore
	events EventPublisher
	now    func() time.Time
}

func NewAdvisoryService(store AdvisoryStore, events EventPublisher) *AdvisoryService {
	return &AdvisoryService{store: store, events: events, now: time.Now}
}

// Ask files a new pending request for the actor.
func (s *AdvisoryService) Ask(ctx context.Context, actor Actor, cropName, question string) (*model.AdvisoryRequest, error) {
	cropName, question = strings.TrimSpace(cropName), strings.TrimSpace(question)
	v := validation.New()
	v.Required("crop_name", cropName)
	v.Required("question", question)
	if err := v.Err(); err != nil {
		return nil, err
	}
	a := &model.AdvisoryRequest{
		UserID:   actor.UserID,
		CropName: cropName,
		Question: question,
		Status:   model.AdvisoryPending,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create advisory request: %w", err)
	}
	return a, nil
}

// ListMine returns the actor's requests, newest first.
func (s *AdvisoryService) ListMine(ctx context.Context, actor Actor) ([]model.AdvisoryRequest, error) {
	return s.store.ListByUser(ctx, actor.UserID)
}

// ListAll returns every request, optionally filtered by status.  Admin only.
func (s *AdvisoryService) ListAll(ctx context.Context, actor Actor, status string) ([]model.AdvisoryRequest, error) {
	if !actor.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	st := model.AdvisoryStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, validation.Single("status", "must be pending or resolved")
	}
	return s.store.ListAll(ctx, st)
}

// Resolve answers a pending request.  Resolution is one-way; a second
// attempt returns repository.ErrConflict.
func (s *AdvisoryService) Resolve(ctx context.Context, actor Actor, id uint64, response string) (*model.AdvisoryRequest, error) {
	if !actor.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, validation.Single("response", "is required")
	}
	a, err := s.store.Resolve(ctx, id, actor.UserID, response, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve advisory request %d: %w", id, err)
	}
	publish(ctx, s.events, queue.Event{
		Type:     queue.AdvisoryResolved,
		ActorID:  actor.UserID,
		OwnerID:  a.UserID,
		EntityID: a.ID,
		Advisory: &queue.AdvisoryPayload{CropName: a.CropName, Status: string(a.Status)},
	})
	return a, nil
}
