package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoCode is a named discount. Either or both of the percent and fixed parts may be
// set; percent is applied first.
type PromoCode struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code            string           `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercent *int             `gorm:"column:discount_percent;check:discount_percent BETWEEN 1 AND 100"`
	DiscountAmount  *decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2)"`
	Active          bool             `gorm:"column:active;not null;default:true"`
	ValidUntil      *time.Time       `gorm:"column:valid_until"`
}

func (p *PromoCode) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Expired reports whether ValidUntil is set and lies before now.
func (p *PromoCode) Expired(now time.Time) bool {
	return p != nil && p.ValidUntil != nil && p.ValidUntil.Before(now)
}
