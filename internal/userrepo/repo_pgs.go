// Package userrepo manages repository layer of users.
package userrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// CreateQuery inserts the user and its zero balance account in one statement.
const CreateQuery = `
WITH u AS (
    INSERT INTO users (
        username,
        hashed_password,
        full_name,
        email,
        role
    ) VALUES (
        $1, $2, $3, $4, $5
    ) RETURNING username, hashed_password, full_name, email, role, password_changed_at, created_at
), a AS (
    INSERT INTO accounts (owner)
    SELECT username FROM u
    RETURNING id
)
SELECT u.username, u.hashed_password, u.full_name, u.email, u.role, a.id, u.password_changed_at, u.created_at
FROM u, a
`

func scan(row *sql.Row) (domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.Username,
		&u.HashedPassword,
		&u.FullName,
		&u.Email,
		&u.Role,
		&u.AccountID,
		&u.PasswordChangedAt,
		&u.CreatedAt,
	)

	return u, err
}

// Create creates the user together with its account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	role := arg.Role
	if role == "" {
		role = domain.RoleUser
	}

	u, err := scan(r.db.QueryRowContext(ctx, CreateQuery,
		arg.Username,
		arg.HashedPassword,
		arg.FullName,
		arg.Email,
		role,
	))
	if err != nil {
		l.Error().Err(err).Send()

		if dbpkg.IsUniqueViolation(err) {
			switch dbpkg.Constraint(err) {
			case "users_pkey":
				return domain.User{}, domain.ErrUsernameAlreadyExists
			case "users_email_key":
				return domain.User{}, domain.ErrEmailALreadyExists
			}
		}

		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}

const getQuery = `
SELECT
	u.username,
	u.hashed_password,
	u.full_name,
	u.email,
	u.role,
	COALESCE(a.id, 0),
	u.password_changed_at,
	u.created_at
FROM users u
LEFT JOIN accounts a ON a.owner = u.username
WHERE u.username = $1
`

// Get returns the user with the given username.
func (r *RepoPGS) Get(ctx context.Context, username string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := scan(r.db.QueryRowContext(ctx, getQuery, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}

		l.Error().Err(err).Send()

		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}

const setRoleQuery = `
UPDATE users
SET role = $2
WHERE username = $1
`

// SetRole changes the privilege level of the user.
func (r *RepoPGS) SetRole(ctx context.Context, username string, role domain.Role) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, setRoleQuery, username, role)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

const getEmailQuery = `
SELECT email FROM users WHERE username = $1
`

// Email returns the email address of the user. It serves as the notifier directory.
func (r *RepoPGS) Email(ctx context.Context, username string) (string, error) {
	var email string

	err := r.db.QueryRowContext(ctx, getEmailQuery, username).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrUserNotFound
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return "", errorspkg.ErrInternal
	}

	return email, nil
}
