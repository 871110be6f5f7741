package message

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

const MaxBodyLength = 2000

type Service struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewService(messages repository.MessageRepository, users repository.UserRepository) *Service {
	return &Service{
		messages: messages,
		users:    users,
		now:      time.Now,
	}
}

func (s *Service) Send(ctx context.Context, sender *model.User, req *model.SendMessageRequest) (*model.Message, error) {
	body := strings.TrimSpace(req.Body)
	switch {
	case req.RecipientID == "":
		return nil, apperrors.Validation("recipientId is required", nil)
	case body == "":
		return nil, apperrors.Validation("body is required", nil)
	case utf8.RuneCountInString(body) > MaxBodyLength:
		return nil, apperrors.Validation(fmt.Sprintf("body must be at most %d characters", MaxBodyLength), nil)
	case req.RecipientID == sender.ID:
		return nil, apperrors.Validation("cannot send a message to yourself", nil)
	}

	if _, err := s.user(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:            uuid.New().String(),
		SenderID:      sender.ID,
		RecipientID:   req.RecipientID,
		Body:          body,
		AppointmentID: req.AppointmentID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return msg, nil
}

// Conversation returns the thread with otherID, oldest first, and marks the
// messages addressed to caller as read.
func (s *Service) Conversation(ctx context.Context, caller *model.User, otherID string) ([]*model.Message, error) {
	if _, err := s.counterpart(ctx, otherID); err != nil {
		return nil, err
	}

	thread, err := s.messages.ListConversation(ctx, caller.ID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if _, err := s.messages.MarkRead(ctx, caller.ID, otherID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return thread, nil
}

// Inbox returns one row per counterpart, most recent conversation first.
func (s *Service) Inbox(ctx context.Context, caller *model.User) ([]*model.ConversationSummary, error) {
	all, err := s.messages.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	byCounterpart := make(map[string]*model.ConversationSummary)
	for _, m := range all {
		other := m.SenderID
		if other == caller.ID {
			other = m.RecipientID
		}
		row, ok := byCounterpart[other]
		if !ok {
			row = &model.ConversationSummary{}
			byCounterpart[other] = row
		}
		row.LastMessage = m
		if m.RecipientID == caller.ID && !m.Read {
			row.UnreadCount++
		}
	}

	out := make([]*model.ConversationSummary, 0, len(byCounterpart))
	for id, row := range byCounterpart {
		u, err := s.counterpart(ctx, id)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, err
			}
			u = &model.User{ID: id}
		}
		row.Counterpart = u
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}

// counterpart resolves the other side of a thread. Notifier threads have no
// stored user behind them.
func (s *Service) counterpart(ctx context.Context, id string) (*model.User, error) {
	if id == model.SystemSenderID {
		return model.SystemUser(), nil
	}
	return s.user(ctx, id)
}

func (s *Service) user(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
