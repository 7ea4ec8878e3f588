package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/testutil"
)

var (
	client  = domain.Actor{UID: "C1", Role: domain.RoleClient}
	sales   = domain.Actor{UID: "S1", Role: domain.RoleSalesTeam}
	sales2  = domain.Actor{UID: "S2", Role: domain.RoleSalesTeam}
	manager = domain.Actor{UID: "M1", Role: domain.RoleSalesManager}
	admin   = domain.Actor{UID: "A1", Role: domain.RoleAdmin}
	writer  = domain.Actor{UID: "W1", Role: domain.RoleWritingTeam}
)

type fixture struct {
	db     *gorm.DB
	svc    *project.Service
	outbox *notification.Outbox
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	for _, a := range []domain.Actor{client, sales, sales2, manager, admin, writer} {
		testutil.CreateUser(t, db, a.UID, a.Role)
	}
	testutil.CreateUser(t, db, "C2", domain.RoleClient, testutil.WithEmail("new@x.com"))

	outbox := notification.NewOutbox(db, nil)
	svc := project.NewService(db, project.NewRepository(db), user.NewRepository(db), outbox, nil)
	return fixture{db: db, svc: svc, outbox: outbox}
}

func terms() project.Finalization {
	advance := int64(10000)
	return project.Finalization{
		DealAmount:      40000,
		AdvanceReceived: &advance,
		FinalDeadline:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DiscussionNotes: "chapters 1-5",
	}
}

func submit(t *testing.T, f fixture) *project.Project {
	t.Helper()
	p, err := f.svc.Submit(context.Background(), client, &project.SubmitRequest{Title: "Literature review", ServiceType: "thesis"})
	require.NoError(t, err)
	return p
}

func TestSubmit(t *testing.T) {
	f := setup(t)
	p := submit(t, f)

	assert.Equal(t, lifecycle.StatusPending, p.Status)
	assert.Equal(t, domain.RegisteredClient("C1"), p.UserID)
	assert.False(t, p.HasFinalization())

	_, err := f.svc.Submit(context.Background(), sales, &project.SubmitRequest{Title: "x", ServiceType: "y"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestApprove_SetsFinalizationAtomically(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	approved, err := f.svc.Approve(ctx, sales, p.ID, terms())
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	require.True(t, approved.HasFinalization())
	assert.Equal(t, int64(40000), *approved.DealAmount)
	assert.Equal(t, int64(10000), *approved.AdvanceReceived)
	assert.Equal(t, "S1", *approved.FinalizedBy)
	assert.Equal(t, "S1", *approved.AssignedSalesID)
	assert.True(t, approved.FinalDeadline.Equal(terms().FinalDeadline))

	_, err = f.svc.Approve(ctx, sales, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApprove_MissingTermsLeavesPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	bad := terms()
	bad.DealAmount = 0
	_, err := f.svc.Approve(ctx, sales, p.ID, bad)
	assert.ErrorIs(t, err, domain.ErrMissingFinalizationData)

	bad = terms()
	over := int64(50000)
	bad.AdvanceReceived = &over
	_, err = f.svc.Approve(ctx, sales, p.ID, bad)
	assert.ErrorIs(t, err, domain.ErrMissingFinalizationData)

	got, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, got.Status)
	assert.Nil(t, got.FinalizedAt)
}

func TestApprove_Authorization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	_, err := f.svc.Approve(ctx, writer, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Approve(ctx, admin, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, f.db.Model(&project.Project{}).Where("id = ?", p.ID).Update("assigned_sales_id", "S2").Error)
	_, err = f.svc.Approve(ctx, sales, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Approve(ctx, sales2, p.ID, terms())
	assert.NoError(t, err)
}

func TestApprove_ConcurrentAssignmentIsNotOverwritten(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	testutil.AssignSalesBeforeNextUpdate(t, f.db, "projects", p.ID, "S2")

	_, err := f.svc.Approve(ctx, sales, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := f.svc.Get(ctx, manager, p.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, got.Status)
	require.NotNil(t, got.AssignedSalesID)
	assert.Equal(t, "S2", *got.AssignedSalesID)
	assert.False(t, got.HasFinalization())
}

func TestApprove_ConcurrentAssignmentToApproverSucceeds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	testutil.AssignSalesBeforeNextUpdate(t, f.db, "projects", p.ID, "S1")

	approved, err := f.svc.Approve(ctx, sales, p.ID, terms())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	require.NotNil(t, approved.AssignedSalesID)
	assert.Equal(t, "S1", *approved.AssignedSalesID)
}

func TestReject_ConcurrentAssignmentIsRespected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	testutil.AssignSalesBeforeNextUpdate(t, f.db, "projects", p.ID, "S2")

	_, err := f.svc.Reject(ctx, sales, p.ID, "budget")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := f.svc.Get(ctx, manager, p.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, got.Status)
}

func TestReject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	_, err := f.svc.Reject(ctx, manager, p.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	rejected, err := f.svc.Reject(ctx, manager, p.ID, "out of scope")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRejected, rejected.Status)
	assert.Equal(t, "out of scope", rejected.RejectionReason)

	_, err = f.svc.Approve(ctx, manager, p.ID, terms())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLinkClientAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := &project.Project{UserID: domain.UnregisteredClient("new@x.com"), Title: "From lead", Status: lifecycle.StatusApproved}
	terms().Apply(p, "S1", time.Now().UTC())
	partnerID := "P9"
	p.ReferredByPartnerID = &partnerID
	require.NoError(t, project.NewRepository(f.db).Create(ctx, p))

	_, err := f.svc.LinkClientAccount(ctx, sales, p.ID, "C2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.LinkClientAccount(ctx, manager, p.ID, "S1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	linked, err := f.svc.LinkClientAccount(ctx, manager, p.ID, "C2")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisteredClient("C2"), linked.UserID)
	assert.Equal(t, *p.FinalizedBy, *linked.FinalizedBy)
	assert.Equal(t, "P9", *linked.ReferredByPartnerID)
	assert.Equal(t, *p.DealAmount, *linked.DealAmount)

	again, err := f.svc.LinkClientAccount(ctx, admin, p.ID, "C2")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisteredClient("C2"), again.UserID)

	_, err = f.svc.LinkClientAccount(ctx, admin, p.ID, "C1")
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

func TestUpdateCommission(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	amount := int64(3000)
	_, err := f.svc.UpdateCommission(ctx, admin, p.ID, project.CommissionEdit{CommissionAmount: &amount})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	approved, err := f.svc.Approve(ctx, sales, p.ID, terms())
	require.NoError(t, err)

	_, err = f.svc.UpdateCommission(ctx, manager, p.ID, project.CommissionEdit{CommissionAmount: &amount})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	salesAmount := int64(1500)
	edited, err := f.svc.UpdateCommission(ctx, admin, p.ID, project.CommissionEdit{CommissionAmount: &amount, SalesCommissionAmount: &salesAmount})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), *edited.CommissionAmount)
	assert.Equal(t, int64(1500), *edited.SalesCommissionAmount)
	assert.True(t, approved.FinalizedAt.Equal(*edited.FinalizedAt))
	assert.Equal(t, *approved.FinalizedBy, *edited.FinalizedBy)
	assert.Equal(t, *approved.DealAmount, *edited.DealAmount)
}

func TestSendApprovalEmail_OnlyOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	_, _, err := f.svc.SendApprovalEmail(ctx, manager, p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Approve(ctx, sales, p.ID, terms())
	require.NoError(t, err)

	_, _, err = f.svc.SendApprovalEmail(ctx, writer, p.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	sent, queued, err := f.svc.SendApprovalEmail(ctx, manager, p.ID)
	require.NoError(t, err)
	assert.True(t, queued)
	assert.True(t, sent.ApprovalEmailSent)

	_, queued, err = f.svc.SendApprovalEmail(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, queued)

	emails, err := f.outbox.ListForProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, notification.TypeProjectApproved, emails[0].Type)
	assert.Equal(t, "c1@example.com", emails[0].To)
	assert.Contains(t, emails[0].Body, "INR 40000")
}

func TestListAndGet_Visibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := submit(t, f)

	mine, total, err := f.svc.List(ctx, client, project.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p.ID, mine[0].ID)

	_, total, err = f.svc.List(ctx, writer, project.Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.svc.Get(ctx, writer, p.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Get(ctx, manager, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
