package payout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/commission"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
)

// Service keeps the payout ledger for referral partners.
type Service struct {
	db         *gorm.DB
	repo       *Repository
	users      *user.Repository
	commission *commission.Service
	outbox     *notification.Outbox
	metrics    *metrics.Metrics
	minPayout  int64
	log        *slog.Logger
	now        func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, users *user.Repository, cs *commission.Service, outbox *notification.Outbox, m *metrics.Metrics, minPayout int64) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		users:      users,
		commission: cs,
		outbox:     outbox,
		metrics:    m,
		minPayout:  minPayout,
		log:        slog.Default().With("component", "payout"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MinPayout is the smallest amount a partner may request.
func (s *Service) MinPayout() int64 {
	return s.minPayout
}

// AvailableBalance returns the partner's balance; visible to the partner and to admins.
func (s *Service) AvailableBalance(ctx context.Context, actor domain.Actor, partnerID string) (Balance, error) {
	if actor.UID != partnerID && !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return Balance{}, domain.ErrUnauthorized
	}
	return s.balance(ctx, s.db.WithContext(ctx), partnerID)
}

func (s *Service) balance(ctx context.Context, db *gorm.DB, partnerID string) (Balance, error) {
	st, err := s.commission.WithTx(db).Earned(ctx, partnerID)
	if err != nil {
		return Balance{}, err
	}

	repo := s.repo.WithTx(db)
	paid, err := repo.Sum(ctx, partnerID, StatusPaid)
	if err != nil {
		return Balance{}, err
	}
	pending, err := repo.Sum(ctx, partnerID, StatusPending)
	if err != nil {
		return Balance{}, err
	}

	b := computeBalance(partnerID, st.Total, paid, pending)
	if b.Clamped {
		s.log.Warn("paid exceeds earned", "partner", partnerID, "earned", st.Total, "paid", paid)
	}
	return b, nil
}

// RequestPayout records a pending payout for the calling partner. The partner row is locked so
// concurrent requests see each other's pending amounts.
func (s *Service) RequestPayout(ctx context.Context, actor domain.Actor, amount int64) (*Payout, error) {
	if !actor.Is(domain.RoleReferralPartner) {
		return nil, fmt.Errorf("%w: %w", user.ErrNotPartner, domain.ErrUnauthorized)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, domain.ErrValidation)
	}
	if amount < s.minPayout {
		s.metrics.ObserveRejection("request_payout", domain.ErrBelowMinimumPayout)
		return nil, fmt.Errorf("minimum is %d: %w", s.minPayout, domain.ErrBelowMinimumPayout)
	}

	var created *Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).GetByIDForUpdate(ctx, actor.UID); err != nil {
			return err
		}

		b, err := s.balance(ctx, tx, actor.UID)
		if err != nil {
			return err
		}
		if amount > b.Requestable {
			return fmt.Errorf("requested %d, requestable %d: %w", amount, b.Requestable, domain.ErrInsufficientBalance)
		}

		p := &Payout{UserID: actor.UID, Amount: amount, Status: StatusPending, RequestDate: s.now()}
		if err := s.repo.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		s.metrics.ObserveRejection("request_payout", err)
		return nil, err
	}

	s.metrics.ObservePayoutRequested()
	s.log.Info("payout requested", "payout", created.ID, "partner", actor.UID, "amount", amount)
	return created, nil
}

// MarkPaid settles a pending payout and queues the partner's notification with it. Marking a
// paid payout again changes nothing and reports false.
func (s *Service) MarkPaid(ctx context.Context, actor domain.Actor, id string) (*Payout, bool, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, false, domain.ErrUnauthorized
	}

	var (
		out     *Payout
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := s.now()
		ok, err := repo.MarkPaid(ctx, id, actor.UID, now)
		if err != nil {
			return err
		}

		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = p
		if !ok {
			return nil
		}
		changed = true

		partner, err := s.users.WithTx(tx).GetByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		return s.outbox.Enqueue(tx, &notification.Email{
			Type:    notification.TypePayoutPaid,
			To:      partner.Email,
			Subject: "Your payout has been processed",
			Body: fmt.Sprintf("Hello %s,\n\nYour payout of INR %d requested on %s has been paid.\n",
				partner.Name, p.Amount, p.RequestDate.Format("2 Jan 2006")),
		})
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.metrics.ObservePayoutPaid(out.Amount)
		s.log.Info("payout paid", "payout", id, "partner", out.UserID, "amount", out.Amount, "by", actor.UID)
	}
	return out, changed, nil
}

// List returns a partner's payouts; partners see only their own.
func (s *Service) List(ctx context.Context, actor domain.Actor, partnerID string) ([]Payout, error) {
	if partnerID == "" {
		partnerID = actor.UID
	}
	if actor.UID != partnerID && !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, partnerID)
}

// ListPending returns the admin's payout queue.
func (s *Service) ListPending(ctx context.Context, actor domain.Actor) ([]Payout, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByStatus(ctx, StatusPending)
}
