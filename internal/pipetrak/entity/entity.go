package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate migrates every tracking table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Org and project
		&Organization{},
		&OrganizationMember{},
		&User{},
		&Project{},
		&Drawing{},

		// Templates and components
		&MilestoneTemplate{},
		&TemplateMilestone{},
		&Component{},
		&ComponentMilestone{},

		// Welds
		&Welder{},
		&FieldWeld{},

		// Audit trail
		&AuditLog{},
		&BulkTransaction{},
	)
}

// JSONB maps to a Postgres jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}
