package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"scholarcrm/internal/domain/lead"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/payout"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/task"
	"scholarcrm/internal/domain/user"
)

// Models lists every persisted entity in creation order.
func Models() []any {
	return []any{
		&user.UserProfile{},
		&lead.ContactLead{},
		&project.Project{},
		&task.Task{},
		&payout.Payout{},
		&notification.Email{},
	}
}

// indexes holds what AutoMigrate cannot express. Both dialects accept partial indexes.
var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + task.LiveTaskIndex + ` ON tasks (project_id) WHERE status <> 'completed'`,
	`CREATE INDEX IF NOT EXISTS idx_payouts_user_status ON payouts (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_email_outbox_queued ON email_outbox (created_at) WHERE status = 'queued'`,
}

// Run brings the schema up to date. It is safe to run repeatedly.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
