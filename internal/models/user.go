package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a player account, keyed by their Telegram ID
type User struct {
	TelegramID   int64   `gorm:"primaryKey;autoIncrement:false" json:"telegramId"`
	Username     string  `json:"username"`
	FirstName    string  `json:"firstName"`
	ReferralCode string  `gorm:"uniqueIndex;not null" json:"referralCode"`
	ReferredBy   *string `gorm:"index" json:"referredBy,omitempty"`
	Referrals    int     `gorm:"default:0" json:"referrals"`

	Bonus      decimal.Decimal `gorm:"type:decimal(24,6);default:0" json:"bonus"`
	Balance    decimal.Decimal `gorm:"type:decimal(24,6);default:0" json:"balance"`
	EarnPerSec decimal.Decimal `gorm:"type:decimal(24,6);default:0" json:"earnPerSec"`

	MiningActive    bool       `gorm:"default:false" json:"miningActive"`
	MiningStartedAt *time.Time `json:"miningStartedAt,omitempty"`
	MiningEndsAt    *time.Time `json:"miningEndsAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
