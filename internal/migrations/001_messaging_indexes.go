package migrations

import "gorm.io/gorm"

// GetMigrations returns all migrations in execution order.
// AutoMigrate handles tables and single-column indexes; composite indexes
// that the hot query paths depend on live here.
func GetMigrations() []Migration {
	return []Migration{
		{
			ID:   "001_messaging_indexes",
			Name: "Composite indexes for message ordering and due scheduled sends",
			Up: func(db *gorm.DB) error {
				stmts := []string{
					// recent-activity ordering and unread counts
					"CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages(conversation_id, created_at)",
					// sweeper selection predicate: status = 'scheduled' AND scheduled_for <= now()
					"CREATE INDEX IF NOT EXISTS idx_communication_logs_due ON communication_logs(status, scheduled_for)",
					// activity log listing per recipient, newest first
					"CREATE INDEX IF NOT EXISTS idx_communication_logs_recipient_created ON communication_logs(recipient_id, created_at)",
				}
				for _, s := range stmts {
					if err := db.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
