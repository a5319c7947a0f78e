package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Restaurant is the catalog-side owner of menu items. The ordering core only
// reads it: activation/approval gates cart creation and the opening window
// gates pickup-time validation.
type Restaurant struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;not null"`
	Phone         *string        `gorm:"column:phone"`
	Cuisines      pq.StringArray `gorm:"column:cuisines;type:text[]"`
	Active        bool           `gorm:"column:active;not null;default:true"`
	Approved      bool           `gorm:"column:approved;not null;default:false"`
	OpeningMinute int            `gorm:"column:opening_minute;not null;default:0"`
	ClosingMinute int            `gorm:"column:closing_minute;not null;default:1439"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
