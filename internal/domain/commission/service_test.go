package commission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/commission"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/testutil"
)

func TestService_PartnerAndSalesStatements(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.CreateUser(t, db, "P1", domain.RoleReferralPartner, testutil.WithReferralCode("CODE1"), testutil.WithCommissionRate(5000))
	testutil.CreateUser(t, db, "P2", domain.RoleReferralPartner, testutil.WithReferralCode("CODE2"))
	testutil.CreateUser(t, db, "C1", domain.RoleClient, testutil.WithReferredBy("CODE1"))
	testutil.CreateUser(t, db, "S1", domain.RoleSalesTeam)

	projects := project.NewRepository(db)
	seed := func(client domain.ClientRef, partner *string, status lifecycle.Status, salesCommission int64) {
		advance := int64(0)
		p := &project.Project{UserID: client, Title: "t", Status: status, ReferredByPartnerID: partner}
		project.Finalization{
			DealAmount:            20000,
			AdvanceReceived:       &advance,
			FinalDeadline:         time.Now().Add(240 * time.Hour),
			SalesCommissionAmount: &salesCommission,
		}.Apply(p, "S1", time.Now().UTC())
		require.NoError(t, projects.Create(ctx, p))
	}
	p1, p2 := "P1", "P2"
	seed(domain.RegisteredClient("C1"), nil, lifecycle.StatusApproved, 1000)
	seed(domain.UnregisteredClient("z@x.com"), &p1, lifecycle.StatusCompleted, 1000)
	seed(domain.RegisteredClient("C1"), &p2, lifecycle.StatusInProgress, 1000)

	svc := commission.NewService(user.NewRepository(db), projects)

	st, err := svc.PartnerStatement(ctx, domain.Actor{UID: "P1", Role: domain.RoleReferralPartner}, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), st.Total)
	assert.Len(t, st.Lines, 2)

	st2, err := svc.PartnerStatement(ctx, domain.Actor{UID: "A1", Role: domain.RoleAdmin}, "P2")
	require.NoError(t, err)
	assert.Len(t, st2.Lines, 1)

	_, err = svc.PartnerStatement(ctx, domain.Actor{UID: "P2", Role: domain.RoleReferralPartner}, "P1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Earned(ctx, "C1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	sales, err := svc.SalesStatement(ctx, domain.Actor{UID: "S1", Role: domain.RoleSalesTeam}, "S1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), sales.Total)
}
