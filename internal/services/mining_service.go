package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hamsterverse/internal/models"
)

var (
	// ErrMiningActive is returned when a user starts mining with an
	// unclaimed session still on the books
	ErrMiningActive = errors.New("mining already active")
	// ErrMiningNotActive is returned when a user claims with no active session
	ErrMiningNotActive = errors.New("mining not active")
)

// MiningService handles idle accrual: starting sessions, computing pending
// earnings and settling claims
type MiningService struct {
	db                *gorm.DB
	miningDuration    time.Duration
	defaultEarnPerSec decimal.Decimal
}

// NewMiningService creates a new MiningService
func NewMiningService(db *gorm.DB, miningDuration time.Duration, defaultEarnPerSec decimal.Decimal) *MiningService {
	return &MiningService{
		db:                db,
		miningDuration:    miningDuration,
		defaultEarnPerSec: defaultEarnPerSec,
	}
}

// PendingEarnings computes the unclaimed reward for a user's mining session
// at the given instant. Accrual runs over whole elapsed seconds within
// [startedAt, min(now, endsAt)] and saturates once the session window closes.
// Pure: no I/O, no stored state changes.
func (s *MiningService) PendingEarnings(user *models.User, now time.Time) decimal.Decimal {
	if !user.MiningActive || user.MiningStartedAt == nil || user.MiningEndsAt == nil {
		return decimal.Zero
	}

	end := *user.MiningEndsAt
	if now.Before(end) {
		end = now
	}
	if !end.After(*user.MiningStartedAt) {
		return decimal.Zero
	}

	elapsed := int64(end.Sub(*user.MiningStartedAt) / time.Second)

	rate := user.EarnPerSec
	if rate.IsZero() {
		rate = s.defaultEarnPerSec
	}

	return rate.Mul(decimal.NewFromInt(elapsed))
}

// StartMining opens a new mining session for a user. A session that is still
// active (claimed or not) must be claimed before a new one starts.
func (s *MiningService) StartMining(ctx context.Context, telegramID int64) (*models.User, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	user, err := s.getUser(db, telegramID)
	if err != nil {
		return nil, err
	}

	if user.MiningActive {
		return nil, ErrMiningActive
	}

	endsAt := now.Add(s.miningDuration)
	result := db.Model(&models.User{}).
		Where("telegram_id = ? AND mining_active = ?", telegramID, false).
		Updates(map[string]interface{}{
			"mining_active":     true,
			"mining_started_at": now,
			"mining_ends_at":    endsAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to start mining: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// a concurrent request started the session first
		return nil, ErrMiningActive
	}

	user.MiningActive = true
	user.MiningStartedAt = &now
	user.MiningEndsAt = &endsAt

	log.Printf("Mining started: telegram_id=%d ends_at=%s", telegramID, endsAt.Format(time.RFC3339))
	return user, nil
}

// ClaimEarnings settles a user's pending earnings into their balance and
// resets the mining session. The guard on mining_active makes a racing
// double-claim a no-op for the loser.
func (s *MiningService) ClaimEarnings(ctx context.Context, telegramID int64) (*models.User, decimal.Decimal, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	user, err := s.getUser(db, telegramID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if !user.MiningActive {
		return nil, decimal.Zero, ErrMiningNotActive
	}

	claimed := s.PendingEarnings(user, now)

	result := db.Model(&models.User{}).
		Where("telegram_id = ? AND mining_active = ?", telegramID, true).
		Updates(map[string]interface{}{
			"balance":           gorm.Expr("balance + ?", claimed),
			"mining_active":     false,
			"mining_started_at": nil,
			"mining_ends_at":    nil,
		})
	if result.Error != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to claim earnings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, decimal.Zero, ErrMiningNotActive
	}

	user.Balance = user.Balance.Add(claimed)
	user.MiningActive = false
	user.MiningStartedAt = nil
	user.MiningEndsAt = nil

	log.Printf("Earnings claimed: telegram_id=%d amount=%s", telegramID, claimed)
	return user, claimed, nil
}

func (s *MiningService) getUser(db *gorm.DB, telegramID int64) (*models.User, error) {
	var user models.User
	if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
