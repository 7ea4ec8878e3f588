package payout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/commission"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/payout"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/testutil"
)

var (
	partner = domain.Actor{UID: "P1", Role: domain.RoleReferralPartner}
	admin   = domain.Actor{UID: "A1", Role: domain.RoleAdmin}
)

type fixture struct {
	db     *gorm.DB
	svc    *payout.Service
	outbox *notification.Outbox
}

// setup seeds partner P1 at a 5000 rate with two finalized referred projects.
func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateUser(t, db, "P1", domain.RoleReferralPartner, testutil.WithReferralCode("CODE1"), testutil.WithCommissionRate(5000))
	testutil.CreateUser(t, db, "A1", domain.RoleAdmin)
	testutil.CreateUser(t, db, "C1", domain.RoleClient)

	users := user.NewRepository(db)
	projects := project.NewRepository(db)
	for _, email := range []string{"a@x.com", "b@x.com"} {
		advance := int64(10000)
		p := &project.Project{
			UserID:              domain.UnregisteredClient(email),
			Title:               "Thesis",
			Status:              lifecycle.StatusApproved,
			ReferredByPartnerID: &partner.UID,
		}
		project.Finalization{DealAmount: 50000, AdvanceReceived: &advance, FinalDeadline: time.Now().Add(720 * time.Hour)}.
			Apply(p, "S1", time.Now().UTC())
		require.NoError(t, projects.Create(ctx, p))
	}

	outbox := notification.NewOutbox(db, nil)
	svc := payout.NewService(db, payout.NewRepository(db), users, commission.NewService(users, projects), outbox, nil, 500)
	return fixture{db: db, svc: svc, outbox: outbox}
}

func TestBalance_EarnedMinusPaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.RequestPayout(ctx, partner, 5000)
	require.NoError(t, err)
	_, changed, err := f.svc.MarkPaid(ctx, admin, p.ID)
	require.NoError(t, err)
	require.True(t, changed)

	b, err := f.svc.AvailableBalance(ctx, partner, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.Earned)
	assert.Equal(t, int64(5000), b.Paid)
	assert.Equal(t, int64(5000), b.Available)
}

func TestBalance_Visibility(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AvailableBalance(context.Background(), domain.Actor{UID: "C1", Role: domain.RoleClient}, "P1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.AvailableBalance(context.Background(), admin, "P1")
	assert.NoError(t, err)
}

func TestRequestPayout_Rules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RequestPayout(ctx, partner, 499)
	assert.ErrorIs(t, err, domain.ErrBelowMinimumPayout)

	_, err = f.svc.RequestPayout(ctx, partner, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.RequestPayout(ctx, admin, 1000)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.RequestPayout(ctx, partner, 10001)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	p, err := f.svc.RequestPayout(ctx, partner, 8000)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusPending, p.Status)

	_, err = f.svc.RequestPayout(ctx, partner, 2001)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance, "pending requests count against the balance")

	_, err = f.svc.RequestPayout(ctx, partner, 2000)
	assert.NoError(t, err)

	pending, err := f.svc.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestMarkPaid_OnceWithEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.RequestPayout(ctx, partner, 1000)
	require.NoError(t, err)

	_, _, err = f.svc.MarkPaid(ctx, partner, p.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	paid, changed, err := f.svc.MarkPaid(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, payout.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, "A1", *paid.PaidBy)

	again, changed, err := f.svc.MarkPaid(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, paid.PaidAt.Unix(), again.PaidAt.Unix())

	queued, err := f.outbox.ListQueued(ctx, 0)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, notification.TypePayoutPaid, queued[0].Type)
	assert.Equal(t, "p1@example.com", queued[0].To)

	_, _, err = f.svc.MarkPaid(ctx, admin, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RequestPayout(ctx, partner, 1000)
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, partner, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.List(ctx, domain.Actor{UID: "P9", Role: domain.RoleReferralPartner}, "P1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.ListPending(ctx, partner)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
