package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/platform/auth"
)

// Service is the recipient-facing inbox plus the admin broadcast.
type Service struct {
	repo       Repository
	dispatcher *Dispatcher
}

func NewService(repo Repository, dispatcher *Dispatcher) *Service {
	return &Service{repo: repo, dispatcher: dispatcher}
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, caller auth.Principal, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.List(ctx, caller.UserID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, caller auth.Principal) (int, error) {
	return s.repo.CountUnread(ctx, caller.UserID)
}

// MarkAsRead marks one of the caller's notifications read. Marking an
// already read record succeeds.
func (s *Service) MarkAsRead(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, caller.UserID, id)
}

func (s *Service) MarkAllAsRead(ctx context.Context, caller auth.Principal) (int, error) {
	return s.repo.MarkAllRead(ctx, caller.UserID)
}

func (s *Service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	return s.repo.Delete(ctx, caller.UserID, id)
}

type BroadcastRequest struct {
	Role    identity.Role `json:"role"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Link    *string       `json:"link,omitempty"`
}

func (r *BroadcastRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Message = strings.TrimSpace(r.Message)
	if !r.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, r.Role)
	}
	if r.Title == "" || r.Message == "" {
		return fmt.Errorf("%w: title and message are required", ErrInvalid)
	}
	return nil
}

// Broadcast sends a system notification to every user holding req.Role.
// Individual write failures are reported in the outcome, not as an error.
func (s *Service) Broadcast(ctx context.Context, caller auth.Principal, req BroadcastRequest) (Outcome, error) {
	if !caller.IsAdmin() {
		return Outcome{}, ErrForbidden
	}
	if err := req.validate(); err != nil {
		return Outcome{}, err
	}
	return s.dispatcher.Notify(ctx, RoleBroadcast{
		Title:   req.Title,
		Message: req.Message,
		Role:    req.Role,
		Link:    req.Link,
	}), nil
}
