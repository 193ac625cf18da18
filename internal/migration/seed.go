package migration

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	workspacedomain "github.com/cwu2020/reflist-sub001/internal/workspace/domain"
)

// EnsureWorkspace provisions the bootstrap workspace so single-tenant
// deployments work without a signup flow.
func EnsureWorkspace(conn *gorm.DB, id snowflake.ID) error {
	var existing workspacedomain.Workspace
	if err := conn.Where("id = ?", id).Limit(1).Find(&existing).Error; err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	return conn.Create(&workspacedomain.Workspace{
		ID:       id,
		Name:     "Default Workspace",
		Slug:     "default",
		Timezone: "UTC",
	}).Error
}
