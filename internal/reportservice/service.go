// Package reportservice manages read-only reporting over account movements.
package reportservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
)

// DateLayout is the layout of history date filters.
const DateLayout = "2006-01-02"

// Repo provides data access layer interface needed by report service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package reportservice
type Repo interface {
	History(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error)
	Statement(ctx context.Context, accountID int64, w domain.Window) (domain.MonthlySummary, []domain.Movement, error)
}

// AccountRepo resolves the account of a user.
type AccountRepo interface {
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Service facilitates report service layer logic.
type Service struct {
	repo     Repo
	accounts AccountRepo
	location *time.Location
}

// New returns report service. Dates and months are interpreted in the ledger time zone.
func New(repo Repo, accounts AccountRepo, config configpkg.Config) (*Service, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid ledger timezone %q: %w", config.LedgerTimezone, err)
	}

	return &Service{
		repo:     repo,
		accounts: accounts,
		location: loc,
	}, nil
}

// HistoryParams holds the raw history query.
type HistoryParams struct {
	Kind      string
	StartDate string
	EndDate   string
	Ordering  string
	PageID    int32
	PageSize  int32
}

// parseKind matches the kind case-insensitively.
func parseKind(s string) (domain.MovementKind, error) {
	for _, k := range []domain.MovementKind{domain.KindDeposit, domain.KindWithdraw, domain.KindTransfer} {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidFilter, s)
}

func (s *Service) parseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, v, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must match %s", domain.ErrInvalidFilter, v, DateLayout)
	}

	return t, nil
}

// Filter converts the raw query into a MovementFilter. Both dates are inclusive.
func (s *Service) Filter(accountID int64, p HistoryParams) (domain.MovementFilter, error) {
	f := domain.MovementFilter{
		AccountID: accountID,
		Limit:     p.PageSize,
		Offset:    (p.PageID - 1) * p.PageSize,
	}

	if p.Kind != "" {
		k, err := parseKind(p.Kind)
		if err != nil {
			return f, err
		}

		f.Kind = &k
	}

	if p.StartDate != "" {
		from, err := s.parseDate(p.StartDate)
		if err != nil {
			return f, err
		}

		f.From = &from
	}

	if p.EndDate != "" {
		end, err := s.parseDate(p.EndDate)
		if err != nil {
			return f, err
		}

		to := end.AddDate(0, 0, 1)
		f.To = &to
	}

	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, fmt.Errorf("%w: start_date is after end_date", domain.ErrInvalidFilter)
	}

	var err error

	f.OrderBy, f.Desc, err = domain.ParseOrdering(p.Ordering)
	if err != nil {
		return f, err
	}

	return f, nil
}

// History returns the filtered movements of the owner's account.
func (s *Service) History(ctx context.Context, owner string, p HistoryParams) ([]domain.Movement, error) {
	acc, err := s.accounts.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	f, err := s.Filter(acc.ID, p)
	if err != nil {
		return nil, err
	}

	return s.repo.History(ctx, f)
}

// MonthlyStatement aggregates the movements of the owner's account within the calendar month.
func (s *Service) MonthlyStatement(ctx context.Context, owner string, year int, month time.Month,
) (domain.MonthlyStatement, error) {
	var st domain.MonthlyStatement

	if month < time.January || month > time.December {
		return st, fmt.Errorf("%w: month %d", domain.ErrInvalidFilter, month)
	}

	acc, err := s.accounts.GetByOwner(ctx, owner)
	if err != nil {
		return st, err
	}

	w := domain.CalendarMonth(year, month, s.location)

	st.Month = fmt.Sprintf("%04d-%02d", year, int(month))

	st.Summary, st.Movements, err = s.repo.Statement(ctx, acc.ID, w)
	if err != nil {
		return domain.MonthlyStatement{}, err
	}

	if st.Movements == nil {
		st.Movements = []domain.Movement{}
	}

	return st, nil
}
