// Package notificationrepo manages repository layer of notifications.
package notificationrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates notification repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns notification RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.Notification, error) {
	var n domain.Notification

	err := row.Scan(
		&n.ID,
		&n.Owner,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)

	return n, err
}

const createQuery = `
INSERT INTO
    notifications (owner, message)
VALUES
    ($1, $2)
RETURNING id, owner, message, is_read, created_at
`

// Create creates the notification and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateNotificationParams) (domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	n, err := scan(r.db.QueryRowContext(ctx, createQuery, arg.Owner, arg.Message))
	if err != nil {
		l.Error().Err(err).Send()

		if dbpkg.Constraint(err) == "notifications_owner_fkey" {
			return n, domain.ErrUserNotFound
		}

		return n, errorspkg.ErrInternal
	}

	return n, nil
}

const getQuery = `
SELECT
	id, owner, message, is_read, created_at
FROM notifications
WHERE id = $1
`

// Get returns the notification with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	n, err := scan(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return n, domain.ErrNotificationNotFound
		}

		l.Error().Err(err).Send()

		return n, errorspkg.ErrInternal
	}

	return n, nil
}

const listQuery = `
SELECT
	id, owner, message, is_read, created_at
FROM notifications
WHERE owner = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

// List returns the notifications of the owner, newest first.
func (r *RepoPGS) List(ctx context.Context, owner string, limit, offset int32) ([]domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Notification{}

	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, n)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const markReadQuery = `
UPDATE notifications
SET is_read = true
WHERE id = $1
RETURNING id, owner, message, is_read, created_at
`

// MarkRead sets the notification read flag.
func (r *RepoPGS) MarkRead(ctx context.Context, id int64) (domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	n, err := scan(r.db.QueryRowContext(ctx, markReadQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return n, domain.ErrNotificationNotFound
		}

		l.Error().Err(err).Send()

		return n, errorspkg.ErrInternal
	}

	return n, nil
}
