package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
)

// Service dispatches approved projects to writers and tracks their progress.
type Service struct {
	db       *gorm.DB
	repo     *Repository
	projects *project.Repository
	users    *user.Repository
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates task service
func NewService(db *gorm.DB, repo *Repository, projects *project.Repository, users *user.Repository, m *metrics.Metrics) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		projects: projects,
		users:    users,
		metrics:  m,
		log:      slog.Default().With("component", "task"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask hands an approved project to a writer. The task insert and the project's move
// to in-progress commit together.
func (s *Service) CreateTask(ctx context.Context, actor domain.Actor, projectID string, req *CreateTaskRequest) (*Task, error) {
	var created *Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projects.WithTx(tx)
		tasks := s.repo.WithTx(tx)

		p, err := projects.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		live, err := tasks.HasLiveTask(ctx, p.ID)
		if err != nil {
			return err
		}
		if live {
			return domain.ErrTaskAlreadyActive
		}

		if err := lifecycle.Check(lifecycle.EntityProject, p.Status, lifecycle.StatusInProgress, actor.Role); err != nil {
			return err
		}

		writer, err := s.users.WithTx(tx).GetByID(ctx, req.WriterID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("writer %s: %w", req.WriterID, domain.ErrValidation)
		}
		if err != nil {
			return err
		}
		if writer.Role != domain.RoleWritingTeam {
			return fmt.Errorf("%w: %w", ErrNotWriter, domain.ErrValidation)
		}

		t := &Task{
			ProjectID:   p.ID,
			AssignedTo:  &writer.UID,
			Description: req.Description,
			Status:      lifecycle.Initial(lifecycle.EntityTask),
			DueDate:     req.DueDate,
			CreatedBy:   actor.UID,
		}
		if err := tasks.Create(ctx, t); err != nil {
			return err
		}

		ok, err := projects.UpdateIfStatus(ctx, p.ID, lifecycle.StatusApproved, map[string]any{
			"status":             lifecycle.StatusInProgress,
			"assigned_writer_id": writer.UID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}

		created = t
		return nil
	})
	if err != nil {
		s.metrics.ObserveRejection("create_task", err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityProject), string(lifecycle.StatusApproved), string(lifecycle.StatusInProgress))
	s.log.Info("task created", "task", created.ID, "project", projectID, "writer", req.WriterID, "by", actor.UID)
	return created, nil
}

// StartTask moves a pending task to in-progress. Only its writer may start it.
func (s *Service) StartTask(ctx context.Context, actor domain.Actor, id string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Check(lifecycle.EntityTask, t.Status, lifecycle.StatusInProgress, actor.Role); err != nil {
		s.metrics.ObserveRejection("start_task", err)
		return nil, err
	}
	if !t.IsAssignedTo(actor.UID) {
		return nil, fmt.Errorf("%w: %w", ErrNotAssignedTo, domain.ErrUnauthorized)
	}

	ok, err := s.repo.UpdateIfStatus(ctx, id, t.Status, map[string]any{
		"status":     lifecycle.StatusInProgress,
		"started_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityTask), string(t.Status), string(lifecycle.StatusInProgress))
	return s.repo.GetByID(ctx, id)
}

// CompleteTask completes the task and its project together. Completing a completed task
// again succeeds without changes.
func (s *Service) CompleteTask(ctx context.Context, actor domain.Actor, id string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == lifecycle.StatusCompleted {
		if !actor.Is(domain.RoleWritingTeam) || !t.IsAssignedTo(actor.UID) {
			return nil, domain.ErrUnauthorized
		}
		return t, nil
	}
	if err := lifecycle.Check(lifecycle.EntityTask, t.Status, lifecycle.StatusCompleted, actor.Role); err != nil {
		s.metrics.ObserveRejection("complete_task", err)
		return nil, err
	}
	if !t.IsAssignedTo(actor.UID) {
		return nil, fmt.Errorf("%w: %w", ErrNotAssignedTo, domain.ErrUnauthorized)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).UpdateIfStatus(ctx, id, t.Status, map[string]any{
			"status":       lifecycle.StatusCompleted,
			"completed_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}

		ok, err = s.projects.WithTx(tx).UpdateIfStatus(ctx, t.ProjectID, lifecycle.StatusInProgress, map[string]any{
			"status": lifecycle.StatusCompleted,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("project %s is not in progress: %w", t.ProjectID, domain.ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveRejection("complete_task", err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(lifecycle.EntityTask), string(t.Status), string(lifecycle.StatusCompleted))
	s.metrics.ObserveTransition(string(lifecycle.EntityProject), string(lifecycle.StatusInProgress), string(lifecycle.StatusCompleted))
	s.log.Info("task completed", "task", id, "project", t.ProjectID, "writer", actor.UID)

	return s.repo.GetByID(ctx, id)
}

// Get returns a task visible to the actor.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Is(domain.RoleAdmin, domain.RoleSalesManager) || t.IsAssignedTo(actor.UID) {
		return t, nil
	}
	return nil, domain.ErrUnauthorized
}

// ListForWriter returns the actor's own tasks.
func (s *Service) ListForWriter(ctx context.Context, actor domain.Actor) ([]Task, error) {
	if !actor.Is(domain.RoleWritingTeam) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListForWriter(ctx, actor.UID)
}

// ListForProject returns the project's task history for dispatchers.
func (s *Service) ListForProject(ctx context.Context, actor domain.Actor, projectID string) ([]Task, error) {
	if !actor.Is(domain.RoleAdmin, domain.RoleSalesManager) {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListForProject(ctx, projectID)
}
