package commission

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
)

var ErrNotSales = fmt.Errorf("user does not work in sales: %w", domain.ErrValidation)

// Service loads persisted projects and derives commission statements from them.
type Service struct {
	users    *user.Repository
	projects *project.Repository
}

// NewService creates commission service
func NewService(users *user.Repository, projects *project.Repository) *Service {
	return &Service{users: users, projects: projects}
}

// WithTx returns a service reading through tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{users: s.users.WithTx(tx), projects: s.projects.WithTx(tx)}
}

// PartnerStatement is visible to the partner and to admins and sales managers.
func (s *Service) PartnerStatement(ctx context.Context, actor domain.Actor, partnerID string) (Statement, error) {
	if actor.UID != partnerID && !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return Statement{}, domain.ErrUnauthorized
	}
	return s.Earned(ctx, partnerID)
}

// Earned computes the partner's statement without an access check.
func (s *Service) Earned(ctx context.Context, partnerID string) (Statement, error) {
	partner, err := s.users.GetByID(ctx, partnerID)
	if err != nil {
		return Statement{}, err
	}
	if !partner.IsPartner() {
		return Statement{}, fmt.Errorf("%w: %w", user.ErrNotPartner, domain.ErrValidation)
	}

	clients := map[string]*user.UserProfile{}
	if partner.ReferralCode != nil {
		referred, err := s.users.ListReferredBy(ctx, *partner.ReferralCode)
		if err != nil {
			return Statement{}, err
		}
		for _, c := range referred {
			clients[c.UID] = c
		}
	}

	clientIDs := make([]string, 0, len(clients))
	for uid := range clients {
		clientIDs = append(clientIDs, uid)
	}

	projects, err := s.projects.ListFinalizedAttributable(ctx, partner.UID, clientIDs)
	if err != nil {
		return Statement{}, err
	}
	return Earnings(partner, projects, clients), nil
}

// SalesStatement is visible to the salesperson and to admins and sales managers.
func (s *Service) SalesStatement(ctx context.Context, actor domain.Actor, salesID string) (Statement, error) {
	if actor.UID != salesID && !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return Statement{}, domain.ErrUnauthorized
	}

	sales, err := s.users.GetByID(ctx, salesID)
	if err != nil {
		return Statement{}, err
	}
	if !sales.Role.IsStaff() {
		return Statement{}, ErrNotSales
	}

	projects, err := s.projects.ListFinalizedBy(ctx, salesID)
	if err != nil {
		return Statement{}, err
	}
	return SalesStatement(salesID, projects), nil
}
