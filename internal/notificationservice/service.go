// Package notificationservice manages business logic layer of in-app notifications.
package notificationservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by notification service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package notificationservice
type Repo interface {
	Get(ctx context.Context, id int64) (domain.Notification, error)
	List(ctx context.Context, owner string, limit, offset int32) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id int64) (domain.Notification, error)
}

// Service facilitates notification service layer logic.
type Service struct {
	repo Repo
}

// New returns notification service.
func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// List returns the notifications of the owner, newest first.
func (s *Service) List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Notification, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.repo.List(ctx, owner, limit, offset)
}

// MarkRead marks the owner's notification as read.
// A notification that is already read is returned unchanged.
func (s *Service) MarkRead(ctx context.Context, owner string, id int64) (domain.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}

	if n.Owner != owner {
		zerolog.Ctx(ctx).Warn().Str("username", owner).Int64("notification_id", id).Msg("foreign notification")
		return domain.Notification{}, domain.ErrNotificationOwnerMismatch
	}

	if n.IsRead {
		return n, nil
	}

	return s.repo.MarkRead(ctx, id)
}
