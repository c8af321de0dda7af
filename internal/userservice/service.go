// Package userservice manages business logic layer of users.
package userservice

import (
	"context"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
	SetRole(ctx context.Context, username string, role domain.Role) error
}

// Service registers ledger users and resolves their roles.
type Service struct {
	repo Repo
}

// New returns user service.
func New(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

// NewUserWihtoutPassword returns the public profile of the user: role and account id, no hash.
func NewUserWihtoutPassword(u domain.User) domain.UserWihtoutPassword {
	return domain.UserWihtoutPassword{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		AccountID: u.AccountID,
		CreatedAt: u.CreatedAt,
	}
}

// Create registers a regular user together with its zero balance account.
// The email is stored lower-cased so the notifier directory has one spelling per address.
func (s *Service) Create(ctx context.Context, username, password, fullname, email string,
) (domain.UserWihtoutPassword, error) {
	l := zerolog.Ctx(ctx)

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.UserWihtoutPassword{}, errorspkg.ErrInternal
	}

	holder, err := s.repo.Create(ctx, domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       fullname,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Role:           domain.RoleUser,
	})
	if err != nil {
		return domain.UserWihtoutPassword{}, err
	}

	l.Info().Str("username", holder.Username).Int64("account_id", holder.AccountID).Msg("account holder registered")

	return NewUserWihtoutPassword(holder), nil
}

// CheckPassword returns the profile of the user when the password matches.
// The role in the profile decides whether the session may reach the approval queue.
func (s *Service) CheckPassword(ctx context.Context, username, password string) (domain.UserWihtoutPassword, error) {
	l := zerolog.Ctx(ctx)

	holder, err := s.repo.Get(ctx, username)
	if err != nil {
		return domain.UserWihtoutPassword{}, err
	}

	if err := passpkg.Check(password, holder.HashedPassword); err != nil {
		l.Warn().Err(err).Str("username", username).Msg("wrong password")
		return domain.UserWihtoutPassword{}, domain.ErrWrongPassword
	}

	return NewUserWihtoutPassword(holder), nil
}

// Promote grants the admin role to the user and returns the updated profile.
// Promoting an admin again is a no-op.
func (s *Service) Promote(ctx context.Context, username string) (domain.UserWihtoutPassword, error) {
	l := zerolog.Ctx(ctx)

	holder, err := s.repo.Get(ctx, username)
	if err != nil {
		return domain.UserWihtoutPassword{}, err
	}

	if holder.Role == domain.RoleAdmin {
		return NewUserWihtoutPassword(holder), nil
	}

	if err := s.repo.SetRole(ctx, username, domain.RoleAdmin); err != nil {
		return domain.UserWihtoutPassword{}, err
	}

	holder.Role = domain.RoleAdmin

	l.Info().Str("username", username).Msg("user promoted to admin")

	return NewUserWihtoutPassword(holder), nil
}
