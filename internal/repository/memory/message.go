package memory

import (
	"context"

	"github.com/jwalitptl/booking-api/internal/model"
)

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, cloneMessage(message))
	return nil
}

// ListConversation returns messages exchanged between the two users, oldest first.
func (r *messageRepository) ListConversation(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Message, 0)
	for _, m := range r.s.messages {
		if (m.SenderID == userID && m.RecipientID == otherID) ||
			(m.SenderID == otherID && m.RecipientID == userID) {
			out = append(out, cloneMessage(m))
		}
	}
	return out, nil
}

// ListForUser returns every message the user sent or received, oldest first.
func (r *messageRepository) ListForUser(ctx context.Context, userID string) ([]*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Message, 0)
	for _, m := range r.s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, cloneMessage(m))
		}
	}
	return out, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, recipientID, senderID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, m := range r.s.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}
