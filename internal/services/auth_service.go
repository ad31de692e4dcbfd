package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/models"
	"hamsterverse/internal/utils"
)

// referral code generation retries before giving up
const maxCodeAttempts = 5

// ErrUserNotFound is returned when no user exists for a Telegram ID
var ErrUserNotFound = errors.New("user not found")

// AuthService owns the user ledger: idempotent create-or-login, referral
// attribution and bonus crediting
type AuthService struct {
	db                *gorm.DB
	referralBonus     decimal.Decimal
	defaultEarnPerSec decimal.Decimal
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, referralBonus, defaultEarnPerSec decimal.Decimal) *AuthService {
	return &AuthService{
		db:                db,
		referralBonus:     referralBonus,
		defaultEarnPerSec: defaultEarnPerSec,
	}
}

// LoginOrCreate finds or creates a user for a verified Telegram claim. The
// create path is an insert-if-absent on telegram_id; the referral bonus is
// credited only by the caller whose insert actually won, so concurrent first
// logins of the same user never double-credit the referrer.
func (s *AuthService) LoginOrCreate(ctx context.Context, claim *auth.TelegramUser, refCode string) (*models.User, bool, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	var existing models.User
	err := db.Where("telegram_id = ?", claim.ID).First(&existing).Error
	if err == nil {
		if err := db.Model(&existing).Update("last_login", now).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update last login: %w", err)
		}
		existing.LastLogin = now
		log.Printf("User logged in: telegram_id=%d", claim.ID)
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	// Resolve the referrer before creating the row. An unknown or malformed
	// code is not an error; the user is simply created without a referrer.
	var referredBy *string
	if refCode != "" {
		var referrer models.User
		if err := db.Where("referral_code = ?", refCode).First(&referrer).Error; err == nil {
			code := referrer.ReferralCode
			referredBy = &code
		}
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.GenerateReferralCode(claim.Username)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate referral code: %w", err)
		}

		user := models.User{
			TelegramID:   claim.ID,
			Username:     claim.Username,
			FirstName:    claim.FirstName,
			ReferralCode: code,
			ReferredBy:   referredBy,
			Bonus:        decimal.Zero,
			Balance:      decimal.Zero,
			EarnPerSec:   s.defaultEarnPerSec,
			CreatedAt:    now,
			LastLogin:    now,
		}

		// The insert and the referral credit commit together or not at all;
		// a persisted referredBy with no matching credit would be permanent.
		var created bool
		err = db.Transaction(func(tx *gorm.DB) error {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "telegram_id"}},
				DoNothing: true,
			}).Create(&user)
			if result.Error != nil {
				return result.Error
			}

			created = result.RowsAffected > 0
			if created && referredBy != nil {
				if err := s.creditReferrer(tx, *referredBy); err != nil {
					return fmt.Errorf("failed to credit referrer %s: %w", *referredBy, err)
				}
			}
			return nil
		})

		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// referral_code collision, regenerate and retry
				continue
			}
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}

		if !created {
			// Lost the race against a concurrent first login; the winner has
			// already handled referral crediting.
			var winner models.User
			if err := db.Where("telegram_id = ?", claim.ID).First(&winner).Error; err != nil {
				return nil, false, fmt.Errorf("database error: %w", err)
			}
			return &winner, false, nil
		}

		log.Printf("New user created: telegram_id=%d referral_code=%s", claim.ID, code)
		return &user, true, nil
	}

	return nil, false, fmt.Errorf("referral code generation exhausted after %d attempts", maxCodeAttempts)
}

// GetUserByTelegramID retrieves a user by their Telegram ID
func (s *AuthService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// creditReferrer atomically adds the referral bonus and bumps the referral
// counter on the referring user
func (s *AuthService) creditReferrer(db *gorm.DB, referralCode string) error {
	return db.Model(&models.User{}).
		Where("referral_code = ?", referralCode).
		Updates(map[string]interface{}{
			"bonus":     gorm.Expr("bonus + ?", s.referralBonus),
			"referrals": gorm.Expr("referrals + 1"),
		}).Error
}
