package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
)

// Service drives the project side of the lifecycle.
type Service struct {
	db      *gorm.DB
	repo    *Repository
	users   *user.Repository
	outbox  *notification.Outbox
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, users *user.Repository, outbox *notification.Outbox, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		users:   users,
		outbox:  outbox,
		metrics: m,
		log:     slog.Default().With("component", "project"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a client's project request in the initial status.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, req *SubmitRequest) (*Project, error) {
	if !actor.Is(domain.RoleClient) {
		return nil, domain.ErrUnauthorized
	}

	p := &Project{
		UserID:            domain.RegisteredClient(actor.UID),
		Title:             strings.TrimSpace(req.Title),
		ServiceType:       req.ServiceType,
		Topic:             req.Topic,
		CourseLevel:       req.CourseLevel,
		Deadline:          req.Deadline,
		PageCount:         req.PageCount,
		WordCount:         req.WordCount,
		Language:          req.Language,
		ReferencingStyle:  req.ReferencingStyle,
		SynopsisFileURL:   req.SynopsisFileURL,
		WantsPublication:  req.WantsPublication,
		PublicationTarget: req.PublicationTarget,
		Status:            lifecycle.Initial(lifecycle.EntityProject),
	}
	if p.Title == "" {
		return nil, fmt.Errorf("title: %w", domain.ErrValidation)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("project submitted", "project", p.ID, "client", actor.UID)
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// Get returns a project the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, p) {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

// List returns projects, narrowed to what the actor's role may see.
func (s *Service) List(ctx context.Context, actor domain.Actor, f Filter) ([]Project, int64, error) {
	switch actor.Role {
	case domain.RoleClient:
		f.ClientID = actor.UID
	case domain.RoleReferralPartner:
		f.ReferredByPartnerID = actor.UID
	case domain.RoleWritingTeam:
		f.AssignedWriterID = actor.UID
	}
	return s.repo.List(ctx, f)
}

// Approve moves a pending project to approved together with its deal terms. Status and
// finalization fields are written by one conditional update, so a concurrent approval,
// rejection or sales assignment makes this call fail instead of overwriting.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id string, terms Finalization) (*Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDecision(actor, p, lifecycle.StatusApproved); err != nil {
		s.metrics.ObserveRejection("approve", err)
		return nil, err
	}
	if !terms.Complete() {
		s.metrics.ObserveRejection("approve", domain.ErrMissingFinalizationData)
		return nil, domain.ErrMissingFinalizationData
	}

	now := s.now()
	cols := terms.columns(actor.UID, now)
	cols["status"] = lifecycle.StatusApproved
	if p.AssignedSalesID == nil && actor.Is(domain.RoleSalesTeam) {
		cols["assigned_sales_id"] = actor.UID
	}

	if err := s.decide(ctx, actor, p, lifecycle.StatusApproved, cols); err != nil {
		s.metrics.ObserveRejection("approve", err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityProject), string(lifecycle.StatusPending), string(lifecycle.StatusApproved))
	s.log.Info("project approved", "project", id, "by", actor.UID, "deal_amount", terms.DealAmount)
	return s.repo.GetByID(ctx, id)
}

// Reject closes a pending project with a reason.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id, reason string) (*Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDecision(actor, p, lifecycle.StatusRejected); err != nil {
		s.metrics.ObserveRejection("reject", err)
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: %w", ErrRejectionReasonRequired, domain.ErrValidation)
	}

	err = s.decide(ctx, actor, p, lifecycle.StatusRejected, map[string]any{
		"status":           lifecycle.StatusRejected,
		"rejection_reason": reason,
	})
	if err != nil {
		s.metrics.ObserveRejection("reject", err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityProject), string(lifecycle.StatusPending), string(lifecycle.StatusRejected))
	s.log.Info("project rejected", "project", id, "by", actor.UID)
	return s.repo.GetByID(ctx, id)
}

// decide writes a pending project's decision. A salesperson's write is also conditioned
// on the sales assignment they were checked against. When the row moved underneath, the
// fresh state is checked again so the caller sees the real cause, and a decision that is
// still permitted is retried once.
func (s *Service) decide(ctx context.Context, actor domain.Actor, p *Project, to lifecycle.Status, cols map[string]any) error {
	for attempt := 0; ; attempt++ {
		var (
			ok  bool
			err error
		)
		if actor.Is(domain.RoleSalesTeam) {
			ok, err = s.repo.UpdateIfStatusAndSales(ctx, p.ID, lifecycle.StatusPending, p.AssignedSalesID, cols)
		} else {
			ok, err = s.repo.UpdateIfStatus(ctx, p.ID, lifecycle.StatusPending, cols)
		}
		if err != nil || ok {
			return err
		}

		fresh, err := s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := s.checkDecision(actor, fresh, to); err != nil {
			return err
		}
		if attempt > 0 {
			return fmt.Errorf("project %s changed concurrently: %w", p.ID, domain.ErrInvalidTransition)
		}
		p = fresh
	}
}

// checkDecision enforces the status table plus advisory ownership: a salesperson may only
// decide projects that are unassigned or assigned to them.
func (s *Service) checkDecision(actor domain.Actor, p *Project, to lifecycle.Status) error {
	if err := lifecycle.Check(lifecycle.EntityProject, p.Status, to, actor.Role); err != nil {
		return err
	}
	if actor.Is(domain.RoleSalesTeam) && p.AssignedSalesID != nil && *p.AssignedSalesID != actor.UID {
		return fmt.Errorf("project %s is owned by another salesperson: %w", p.ID, domain.ErrUnauthorized)
	}
	return nil
}

// LinkClientAccount points a project created for an unregistered prospect at the account the
// client later registered. Finalization and attribution fields are left untouched.
func (s *Service) LinkClientAccount(ctx context.Context, actor domain.Actor, id, newUserID string) (*Project, error) {
	if !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return nil, domain.ErrUnauthorized
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := domain.RegisteredClient(newUserID)
	if uid, ok := p.UserID.UserID(); ok {
		if uid == newUserID {
			return p, nil
		}
		return nil, fmt.Errorf("project %s already belongs to a registered client: %w", id, domain.ErrAlreadyAssigned)
	}

	client, err := s.users.GetByID(ctx, newUserID)
	if err != nil {
		return nil, err
	}
	if client.Role != domain.RoleClient {
		return nil, fmt.Errorf("%w: %w", ErrNotClient, domain.ErrValidation)
	}

	ok, err := s.repo.RelinkClient(ctx, id, p.UserID, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %s client changed concurrently: %w", id, domain.ErrAlreadyAssigned)
	}

	s.log.Info("project linked to client account", "project", id, "client", newUserID, "by", actor.UID)
	return s.repo.GetByID(ctx, id)
}

// LinkUnregisteredClientTx re-links every project held by the unregistered email to uid.
// It runs inside the caller's transaction.
func (s *Service) LinkUnregisteredClientTx(tx *gorm.DB, email, uid string) (int64, error) {
	return s.repo.WithTx(tx).RelinkAllClient(tx.Statement.Context, domain.UnregisteredClient(email), domain.RegisteredClient(uid))
}

// UpdateCommission edits the partner and/or salesperson commission of a finalized project.
// Deal terms and finalizedAt/finalizedBy are never touched.
func (s *Service) UpdateCommission(ctx context.Context, actor domain.Actor, id string, edit CommissionEdit) (*Project, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrUnauthorized
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsFinalized() {
		return nil, fmt.Errorf("commission of %s project: %w", p.Status, domain.ErrInvalidTransition)
	}

	cols := map[string]any{}
	if edit.CommissionAmount != nil {
		if *edit.CommissionAmount < 0 {
			return nil, fmt.Errorf("commission amount: %w", domain.ErrValidation)
		}
		cols["commission_amount"] = *edit.CommissionAmount
	}
	if edit.SalesCommissionAmount != nil {
		if *edit.SalesCommissionAmount < 0 {
			return nil, fmt.Errorf("sales commission amount: %w", domain.ErrValidation)
		}
		cols["sales_commission_amount"] = *edit.SalesCommissionAmount
	}
	if len(cols) == 0 {
		return p, nil
	}

	if err := s.repo.UpdateFields(ctx, id, cols); err != nil {
		return nil, err
	}

	s.log.Info("project commission edited", "project", id, "by", actor.UID)
	return s.repo.GetByID(ctx, id)
}

// SendApprovalEmail queues the approval email for a finalized project at most once. The
// approvalEmailSent flag and the outbox row commit together; once the flag is set further
// calls are no-ops. It reports whether an email was queued by this call.
func (s *Service) SendApprovalEmail(ctx context.Context, actor domain.Actor, id string) (*Project, bool, error) {
	if !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return nil, false, domain.ErrUnauthorized
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !p.IsFinalized() {
		return nil, false, fmt.Errorf("approval email for %s project: %w", p.Status, domain.ErrInvalidTransition)
	}
	if p.ApprovalEmailSent {
		return p, false, nil
	}

	to, name, err := s.recipient(ctx, p)
	if err != nil {
		return nil, false, err
	}

	queued := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.repo.WithTx(tx).MarkApprovalEmailSent(ctx, id)
		if err != nil || !flipped {
			return err
		}

		projectID := p.ID
		email := &notification.Email{
			Type:      notification.TypeProjectApproved,
			To:        to,
			Subject:   fmt.Sprintf("Your project %q has been approved", p.Title),
			Body:      approvalBody(name, p),
			ProjectID: &projectID,
		}
		if err := s.outbox.Enqueue(tx, email); err != nil {
			return err
		}
		queued = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if queued {
		s.log.Info("approval email queued", "project", id, "to", to, "by", actor.UID)
	}
	p, err = s.repo.GetByID(ctx, id)
	return p, queued, err
}

func (s *Service) recipient(ctx context.Context, p *Project) (string, string, error) {
	if email, ok := p.UserID.Email(); ok {
		return email, "", nil
	}
	uid, _ := p.UserID.UserID()
	client, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return "", "", fmt.Errorf("load client %s: %w", uid, err)
	}
	return client.Email, client.Name, nil
}

func approvalBody(name string, p *Project) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "Dear %s,\n\n", name)
	} else {
		b.WriteString("Hello,\n\n")
	}
	fmt.Fprintf(&b, "Your project %q has been approved.\n", p.Title)
	if p.DealAmount != nil {
		fmt.Fprintf(&b, "Agreed amount: INR %d\n", *p.DealAmount)
	}
	if p.AdvanceReceived != nil {
		fmt.Fprintf(&b, "Advance received: INR %d\n", *p.AdvanceReceived)
	}
	if p.FinalDeadline != nil {
		fmt.Fprintf(&b, "Final deadline: %s\n", p.FinalDeadline.Format("02 Jan 2006"))
	}
	return b.String()
}

func canView(actor domain.Actor, p *Project) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSalesManager, domain.RoleSalesTeam:
		return true
	case domain.RoleClient:
		uid, ok := p.UserID.UserID()
		return ok && uid == actor.UID
	case domain.RoleReferralPartner:
		return p.ReferredByPartnerID != nil && *p.ReferredByPartnerID == actor.UID
	case domain.RoleWritingTeam:
		return p.AssignedWriterID != nil && *p.AssignedWriterID == actor.UID
	}
	return false
}
