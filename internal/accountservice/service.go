// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
	RecomputeBalance(ctx context.Context, id int64) (decimal.Decimal, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner returns the account of the given user.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return s.repo.GetByOwner(ctx, owner)
}

// GetBalance returns the stored balance of the account.
func (s *Service) GetBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return acc.Balance, nil
}

// RecomputeBalanceFromMovements derives the balance from the approved movements of the account.
func (s *Service) RecomputeBalanceFromMovements(ctx context.Context, id int64) (decimal.Decimal, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return decimal.Zero, err
	}

	return s.repo.RecomputeBalance(ctx, id)
}

// Audit compares the stored balance with the recomputed one.
func (s *Service) Audit(ctx context.Context, id int64) (domain.AccountAudit, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.AccountAudit{}, err
	}

	recomputed, err := s.repo.RecomputeBalance(ctx, id)
	if err != nil {
		return domain.AccountAudit{}, err
	}

	audit := domain.AccountAudit{
		AccountID:  id,
		Balance:    acc.Balance,
		Recomputed: recomputed,
		Consistent: acc.Balance.Equal(recomputed),
	}

	if !audit.Consistent {
		zerolog.Ctx(ctx).Error().
			Int64("account_id", id).
			Str("balance", acc.Balance.String()).
			Str("recomputed", recomputed.String()).
			Msg("balance drift")
	}

	return audit, nil
}
