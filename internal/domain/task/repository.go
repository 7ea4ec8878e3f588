package task

import (
	"context"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
)

const (
	collection = "tasks"

	// LiveTaskIndex allows one non-completed task per project.
	LiveTaskIndex = "idx_tasks_one_live_per_project"
)

var liveTaskKey = database.UniqueKey{Index: LiveTaskIndex, Column: "tasks.project_id"}

// Repository handles task data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates task repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts t. A second live task for the same project is reported as ErrTaskAlreadyActive.
func (r *Repository) Create(ctx context.Context, t *Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if database.IsUniqueViolation(err, liveTaskKey) {
			return domain.ErrTaskAlreadyActive
		}
		return database.Classify(err, collection, "create", t)
	}
	return nil
}

// GetByID retrieves task by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, database.Classify(err, collection, "get", id)
	}
	return &t, nil
}

// HasLiveTask reports whether projectID has a task that is not completed.
func (r *Repository) HasLiveTask(ctx context.Context, projectID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Task{}).
		Where("project_id = ? AND status <> ?", projectID, lifecycle.StatusCompleted).
		Count(&n).Error
	if err != nil {
		return false, database.Classify(err, collection, "query", projectID)
	}
	return n > 0, nil
}

// ListForWriter returns the writer's tasks, newest first.
func (r *Repository) ListForWriter(ctx context.Context, writerID string) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Where("assigned_to = ?", writerID).Order("created_at desc").Find(&tasks).Error; err != nil {
		return nil, database.Classify(err, collection, "query", writerID)
	}
	return tasks, nil
}

// ListForProject returns every task of the project, oldest first.
func (r *Repository) ListForProject(ctx context.Context, projectID string) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at asc").Find(&tasks).Error; err != nil {
		return nil, database.Classify(err, collection, "query", projectID)
	}
	return tasks, nil
}

// UpdateIfStatus applies cols only while the task is still in status from.
func (r *Repository) UpdateIfStatus(ctx context.Context, id string, from lifecycle.Status, cols map[string]any) (bool, error) {
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Task{}).Where("id = ? AND status = ?", id, from).Updates(cols)
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", cols)
	}
	return res.RowsAffected == 1, nil
}
