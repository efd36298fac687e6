package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/session"
)

// DraftService keeps one unsubmitted form per user and form type
type DraftService interface {
	// Save overwrites the caller's slot for draftType
	Save(ctx context.Context, s *session.Session, draftType string, payload json.RawMessage) (*entity.Draft, error)

	// Load returns the slot and empties it. A second Load returns port.ErrNotFound.
	Load(ctx context.Context, s *session.Session, draftType string) (*entity.Draft, error)
}

type draftServiceImpl struct {
	drafts     port.DraftRepository
	dispatcher dispatcher.Dispatcher
	now        Clock
	logger     Logger
}

// NewDraftService creates a new DraftService
func NewDraftService(drafts port.DraftRepository, disp dispatcher.Dispatcher, now Clock, logger Logger) DraftService {
	if now == nil {
		now = time.Now
	}
	return &draftServiceImpl{drafts: drafts, dispatcher: disp, now: now, logger: logger}
}

func (s *draftServiceImpl) Save(ctx context.Context, sess *session.Session, draftType string, payload json.RawMessage) (*entity.Draft, error) {
	if _, err := entity.ParseDocType(draftType); err != nil {
		return nil, err
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, fmt.Errorf("%w: draft payload must be a JSON document", entity.ErrInvalidInput)
	}

	draft := &entity.Draft{
		Key:       entity.DraftKey(sess.UID, draftType),
		UID:       sess.UID,
		DraftType: draftType,
		Payload:   payload,
		SavedAt:   s.now(),
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		s.logger.Error("Failed to save draft", "error", err, "key", draft.Key)
		return nil, err
	}

	evt := event.NewEvent(event.TypeDraftSaved, map[string]string{
		"uid":        sess.UID,
		"draft_type": draftType,
	})
	if err := s.dispatcher.Enqueue(ctx, evt); err != nil {
		s.logger.Error("Failed to enqueue draft event", "error", err, "uid", sess.UID)
	}
	return draft, nil
}

func (s *draftServiceImpl) Load(ctx context.Context, sess *session.Session, draftType string) (*entity.Draft, error) {
	if _, err := entity.ParseDocType(draftType); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Take(ctx, entity.DraftKey(sess.UID, draftType))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Draft consumed", "key", draft.Key)
	return draft, nil
}
