package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
)

var ErrWrongStaffRole = errors.New("staff member has the wrong role for this assignment")

// target describes where an entity keeps its owner and who may own it.
type target struct {
	table     string
	column    string
	staffRole domain.Role
}

var targets = map[lifecycle.Entity]target{
	lifecycle.EntityLead:    {table: "leads", column: "assigned_sales_id", staffRole: domain.RoleSalesTeam},
	lifecycle.EntityProject: {table: "projects", column: "assigned_sales_id", staffRole: domain.RoleSalesTeam},
	lifecycle.EntityTask:    {table: "tasks", column: "assigned_to", staffRole: domain.RoleWritingTeam},
}

// Result reports the owner after an assignment and whether this call set it.
type Result struct {
	Entity  lifecycle.Entity `json:"entity"`
	ID      string           `json:"id"`
	StaffID string           `json:"staff_id"`
	Changed bool             `json:"changed"`
}

// Service sets first ownership on leads, projects and tasks. Ownership is write-once; status
// is never touched.
type Service struct {
	db      *gorm.DB
	users   *user.Repository
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(db *gorm.DB, users *user.Repository, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		users:   users,
		metrics: m,
		log:     slog.Default().With("component", "assignment"),
	}
}

// Assign makes staffID the owner of the entity if it has none. Re-assigning the same owner
// succeeds without changes; a different owner fails with ErrAlreadyAssigned.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, entity lifecycle.Entity, id, staffID string) (Result, error) {
	res := Result{Entity: entity, ID: id, StaffID: staffID}

	if !actor.Is(domain.RoleSalesManager, domain.RoleAdmin) {
		s.metrics.ObserveRejection("assign", domain.ErrUnauthorized)
		return res, domain.ErrUnauthorized
	}
	t, ok := targets[entity]
	if !ok {
		return res, fmt.Errorf("entity %q cannot be assigned: %w", entity, domain.ErrValidation)
	}

	staff, err := s.users.GetByID(ctx, staffID)
	if errors.Is(err, domain.ErrNotFound) {
		return res, fmt.Errorf("staff %s: %w", staffID, domain.ErrValidation)
	}
	if err != nil {
		return res, err
	}
	if staff.Role != t.staffRole {
		return res, fmt.Errorf("%w: %s needs %s: %w", ErrWrongStaffRole, entity, t.staffRole, domain.ErrValidation)
	}

	update := s.db.WithContext(ctx).Table(t.table).
		Where(fmt.Sprintf("id = ? AND (%[1]s IS NULL OR %[1]s = '')", t.column), id).
		Updates(map[string]any{t.column: staffID, "updated_at": time.Now().UTC()})
	if update.Error != nil {
		return res, database.Classify(update.Error, t.table, "assign", map[string]any{"id": id, t.column: staffID})
	}
	if update.RowsAffected == 1 {
		res.Changed = true
		s.log.Info("assigned", "entity", entity, "id", id, "staff", staffID, "by", actor.UID)
		return res, nil
	}

	var current struct {
		Owner *string
	}
	err = s.db.WithContext(ctx).Table(t.table).
		Select(t.column+" AS owner").
		Where("id = ?", id).
		Take(&current).Error
	if err != nil {
		return res, database.Classify(err, t.table, "get", id)
	}
	if current.Owner != nil && *current.Owner == staffID {
		return res, nil
	}

	s.metrics.ObserveRejection("assign", domain.ErrAlreadyAssigned)
	return res, domain.ErrAlreadyAssigned
}
