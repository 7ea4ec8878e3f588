package task

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scholarcrm/internal/domain/lifecycle"
)

// Task is a writer's unit of work against an approved project. At most one task per
// project is live (not completed) at a time.
type Task struct {
	ID          string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID   string           `json:"project_id" gorm:"type:varchar(36);not null;index"`
	AssignedTo  *string          `json:"assigned_to,omitempty" gorm:"type:varchar(64);index"`
	Description string           `json:"description" gorm:"type:text"`
	Status      lifecycle.Status `json:"status" gorm:"type:varchar(16);not null;index"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	CreatedBy   string           `json:"created_by" gorm:"type:varchar(64)"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = lifecycle.Initial(lifecycle.EntityTask)
	}
	return nil
}

// IsAssignedTo reports whether uid is the task's writer.
func (t *Task) IsAssignedTo(uid string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == uid
}
