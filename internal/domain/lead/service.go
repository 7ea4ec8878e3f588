package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
)

// Service handles lead intake and conversion.
type Service struct {
	db       *gorm.DB
	repo     *Repository
	projects *project.Repository
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates lead service
func NewService(db *gorm.DB, repo *Repository, projects *project.Repository, m *metrics.Metrics) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		projects: projects,
		metrics:  m,
		log:      slog.Default().With("component", "lead"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a website contact-form lead. Resubmitting the form with the same email
// while an earlier lead is still open returns that lead.
func (s *Service) Submit(ctx context.Context, req *SubmitLeadRequest) (*ContactLead, error) {
	email := user.NormalizeEmail(req.Email)

	existing, err := s.repo.GetOpenWebsiteLead(ctx, email)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	l := newLead(req, SourceWebsite)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.log.Info("lead submitted", "lead", l.ID, "source", l.Source)
	return l, nil
}

// SubmitReferral records a lead on behalf of the referral partner submitting it.
func (s *Service) SubmitReferral(ctx context.Context, actor domain.Actor, req *SubmitLeadRequest) (*ContactLead, error) {
	if !actor.Is(domain.RoleReferralPartner) {
		return nil, fmt.Errorf("%w: %w", ErrNotPartner, domain.ErrUnauthorized)
	}

	l := newLead(req, SourceReferral)
	partnerID := actor.UID
	l.ReferredByPartnerID = &partnerID

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.log.Info("lead submitted", "lead", l.ID, "source", l.Source, "partner", partnerID)
	return l, nil
}

func newLead(req *SubmitLeadRequest, source Source) *ContactLead {
	return &ContactLead{
		Name:        strings.TrimSpace(req.Name),
		Email:       user.NormalizeEmail(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		ServiceType: req.ServiceType,
		Message:     req.Message,
		Source:      source,
		Status:      lifecycle.Initial(lifecycle.EntityLead),
	}
}

// Get returns a lead the actor may see.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*ContactLead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, l) {
		return nil, domain.ErrUnauthorized
	}
	return l, nil
}

// List returns leads narrowed to what the actor may see.
func (s *Service) List(ctx context.Context, actor domain.Actor, f Filter) ([]ContactLead, int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSalesManager:
	case domain.RoleSalesTeam:
		f.AssignedSalesID = actor.UID
	case domain.RoleReferralPartner:
		f.ReferredByPartnerID = actor.UID
	default:
		return nil, 0, domain.ErrUnauthorized
	}
	return s.repo.List(ctx, f)
}

// Stats returns lead counts by status.
func (s *Service) Stats(ctx context.Context, actor domain.Actor) (map[lifecycle.Status]int64, error) {
	if !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.CountByStatus(ctx)
}

// MarkContacted moves a new lead to contacted. Contacted is advisory: repeating it only
// refreshes the last-contacted time.
func (s *Service) MarkContacted(ctx context.Context, actor domain.Actor, id string) (*ContactLead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.IsConverted() {
		return nil, domain.ErrLeadAlreadyConverted
	}

	from := l.Status
	if from == lifecycle.StatusNew {
		if err := lifecycle.Check(lifecycle.EntityLead, from, lifecycle.StatusContacted, actor.Role); err != nil {
			s.metrics.ObserveRejection("mark_contacted", err)
			return nil, err
		}
	} else if !actor.Is(lifecycle.AllowedRoles(lifecycle.EntityLead, lifecycle.StatusNew, lifecycle.StatusContacted)...) {
		return nil, domain.ErrUnauthorized
	}
	if err := checkOwner(actor, l); err != nil {
		return nil, err
	}

	ok, err := s.repo.MarkContacted(ctx, id, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lead %s changed concurrently: %w", id, domain.ErrInvalidTransition)
	}
	if from != lifecycle.StatusContacted {
		s.metrics.ObserveTransition(string(lifecycle.EntityLead), string(from), string(lifecycle.StatusContacted))
	}

	return s.repo.GetByID(ctx, id)
}

// Convert turns an open lead into an approved project carrying the lead's referral and
// sales provenance. The lead update and the project insert commit as one unit.
func (s *Service) Convert(ctx context.Context, actor domain.Actor, id string, terms DealTerms) (*ContactLead, *project.Project, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkConvert(actor, l); err != nil {
		return nil, nil, err
	}
	if !terms.Complete() {
		s.metrics.ObserveRejection("convert", domain.ErrIncompleteDealTerms)
		return nil, nil, domain.ErrIncompleteDealTerms
	}

	var p *project.Project
	for attempt := 0; ; attempt++ {
		var ok bool
		p, ok, err = s.convertOnce(ctx, actor, l, terms)
		if err != nil {
			s.metrics.ObserveRejection("convert", err)
			return nil, nil, err
		}
		if ok {
			break
		}

		// The lead moved between the read and the write: re-check against what is stored now.
		fresh, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if err := s.checkConvert(actor, fresh); err != nil {
			return nil, nil, err
		}
		if attempt > 0 {
			return nil, nil, fmt.Errorf("lead %s changed concurrently: %w", id, domain.ErrInvalidTransition)
		}
		l = fresh
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityLead), string(l.Status), string(lifecycle.StatusConverted))
	s.log.Info("lead converted", "lead", l.ID, "project", p.ID, "by", actor.UID, "deal_amount", terms.DealAmount)

	l, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return l, p, nil
}

func (s *Service) checkConvert(actor domain.Actor, l *ContactLead) error {
	if l.IsConverted() {
		s.metrics.ObserveRejection("convert", domain.ErrLeadAlreadyConverted)
		return domain.ErrLeadAlreadyConverted
	}
	if err := lifecycle.Check(lifecycle.EntityLead, l.Status, lifecycle.StatusConverted, actor.Role); err != nil {
		s.metrics.ObserveRejection("convert", err)
		return err
	}
	return checkOwner(actor, l)
}

// convertOnce marks l converted and inserts its project in one transaction. The lead write
// is conditioned on the sales assignment copied into the project, and ok is false when the
// stored lead no longer matches l.
func (s *Service) convertOnce(ctx context.Context, actor domain.Actor, l *ContactLead, terms DealTerms) (*project.Project, bool, error) {
	now := s.now()
	p := &project.Project{
		ID:                  uuid.NewString(),
		UserID:              domain.UnregisteredClient(l.Email),
		Title:               strings.TrimSpace(terms.Title),
		ServiceType:         terms.ServiceType,
		Status:              lifecycle.StatusApproved,
		ReferredByPartnerID: l.ReferredByPartnerID,
		AssignedSalesID:     l.AssignedSalesID,
		SourceLeadID:        &l.ID,
	}
	if p.ServiceType == "" {
		p.ServiceType = l.ServiceType
	}
	terms.finalization().Apply(p, actor.UID, now)

	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.WithTx(tx).MarkConverted(ctx, l.ID, p.ID, l.AssignedSalesID, now)
		if err != nil || !changed {
			return err
		}
		ok = true
		return s.projects.WithTx(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, false, err
	}
	return p, ok, nil
}

// checkOwner lets a salesperson work only leads that are unassigned or assigned to them.
func checkOwner(actor domain.Actor, l *ContactLead) error {
	if actor.Is(domain.RoleSalesTeam) && l.AssignedSalesID != nil && *l.AssignedSalesID != actor.UID {
		return fmt.Errorf("lead %s is owned by another salesperson: %w", l.ID, domain.ErrUnauthorized)
	}
	return nil
}

func canView(actor domain.Actor, l *ContactLead) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSalesManager:
		return true
	case domain.RoleSalesTeam:
		return l.AssignedSalesID == nil || *l.AssignedSalesID == actor.UID
	case domain.RoleReferralPartner:
		return l.ReferredByPartnerID != nil && *l.ReferredByPartnerID == actor.UID
	}
	return false
}
