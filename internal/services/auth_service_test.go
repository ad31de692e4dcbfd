package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// a single connection keeps concurrent sqlite writes from tripping locks
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.Exec("DELETE FROM users")
	return db
}

func newTestAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db, decimal.NewFromInt(50), decimal.NewFromInt(2))
}

func TestLoginOrCreateNewUser(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	claim := &auth.TelegramUser{ID: 1001, Username: "alice", FirstName: "Alice"}
	user, isNew, err := service.LoginOrCreate(ctx, claim, "")
	if err != nil {
		t.Fatalf("LoginOrCreate failed: %v", err)
	}

	if !isNew {
		t.Error("expected isNew for first login")
	}
	if user.TelegramID != 1001 {
		t.Errorf("expected telegram id 1001, got %d", user.TelegramID)
	}
	if user.ReferralCode == "" {
		t.Error("expected a referral code to be assigned")
	}
	if user.ReferredBy != nil {
		t.Errorf("expected no referrer, got %v", *user.ReferredBy)
	}
	if !user.Balance.IsZero() || !user.Bonus.IsZero() {
		t.Error("expected zero balance and bonus at creation")
	}
	if !user.EarnPerSec.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected default earn rate 2, got %s", user.EarnPerSec)
	}
}

func TestLoginOrCreateExistingUser(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	claim := &auth.TelegramUser{ID: 1002, Username: "bob", FirstName: "Bob"}
	first, _, err := service.LoginOrCreate(ctx, claim, "")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}

	second, isNew, err := service.LoginOrCreate(ctx, claim, "")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if isNew {
		t.Error("expected isNew=false for second login")
	}
	if second.ReferralCode != first.ReferralCode {
		t.Errorf("referral code regenerated: %s -> %s", first.ReferralCode, second.ReferralCode)
	}
	if second.LastLogin.Before(first.LastLogin) {
		t.Error("last login not advanced")
	}
}

func TestReferralFlow(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	referrer, _, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 2001, Username: "alice", FirstName: "Alice"}, "")
	if err != nil {
		t.Fatalf("referrer login failed: %v", err)
	}

	referred, isNew, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 2002, Username: "bob", FirstName: "Bob"}, referrer.ReferralCode)
	if err != nil {
		t.Fatalf("referred login failed: %v", err)
	}
	if !isNew {
		t.Fatal("expected referred user to be new")
	}

	if referred.ReferredBy == nil || *referred.ReferredBy != referrer.ReferralCode {
		t.Errorf("expected referredBy %s, got %v", referrer.ReferralCode, referred.ReferredBy)
	}

	var updated models.User
	if err := db.Where("telegram_id = ?", referrer.TelegramID).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload referrer: %v", err)
	}
	if !updated.Bonus.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected referrer bonus 50, got %s", updated.Bonus)
	}
	if updated.Referrals != 1 {
		t.Errorf("expected 1 referral, got %d", updated.Referrals)
	}
}

func TestReferralCreditedOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	referrer, _, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 3001, Username: "alice", FirstName: "Alice"}, "")
	if err != nil {
		t.Fatalf("referrer login failed: %v", err)
	}

	claim := &auth.TelegramUser{ID: 3002, Username: "bob", FirstName: "Bob"}
	for i := 0; i < 2; i++ {
		if _, _, err := service.LoginOrCreate(ctx, claim, referrer.ReferralCode); err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}

	var updated models.User
	if err := db.Where("telegram_id = ?", referrer.TelegramID).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload referrer: %v", err)
	}
	if !updated.Bonus.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected bonus credited exactly once (50), got %s", updated.Bonus)
	}
	if updated.Referrals != 1 {
		t.Errorf("expected 1 referral, got %d", updated.Referrals)
	}
}

func TestUnknownReferralCodeIgnored(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	user, isNew, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 4001, Username: "carol", FirstName: "Carol"}, "no-such-code")
	if err != nil {
		t.Fatalf("LoginOrCreate failed: %v", err)
	}
	if !isNew {
		t.Error("expected user to be created")
	}
	if user.ReferredBy != nil {
		t.Errorf("expected no referrer for unknown code, got %v", *user.ReferredBy)
	}
}

func TestConcurrentFirstLogin(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	referrer, _, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 5001, Username: "alice", FirstName: "Alice"}, "")
	if err != nil {
		t.Fatalf("referrer login failed: %v", err)
	}

	claim := &auth.TelegramUser{ID: 5002, Username: "bob", FirstName: "Bob"}

	const workers = 8
	var wg sync.WaitGroup
	created := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, isNew, err := service.LoginOrCreate(ctx, claim, referrer.ReferralCode)
			if err != nil {
				t.Errorf("concurrent login failed: %v", err)
				return
			}
			created <- isNew
		}()
	}
	wg.Wait()
	close(created)

	newCount := 0
	for isNew := range created {
		if isNew {
			newCount++
		}
	}
	if newCount != 1 {
		t.Errorf("expected exactly one creation, got %d", newCount)
	}

	var userCount int64
	db.Model(&models.User{}).Where("telegram_id = ?", claim.ID).Count(&userCount)
	if userCount != 1 {
		t.Errorf("expected exactly one user row, got %d", userCount)
	}

	var updated models.User
	if err := db.Where("telegram_id = ?", referrer.TelegramID).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload referrer: %v", err)
	}
	if !updated.Bonus.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected referrer credited exactly once (50), got %s", updated.Bonus)
	}
	if updated.Referrals != 1 {
		t.Errorf("expected 1 referral, got %d", updated.Referrals)
	}
}

func TestReferralCreditFailureRollsBackCreation(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)
	ctx := context.Background()

	referrer, _, err := service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 7001, Username: "alice", FirstName: "Alice"}, "")
	if err != nil {
		t.Fatalf("referrer login failed: %v", err)
	}

	// make the credit fail at the storage layer while the insert still succeeds
	if err := db.Exec(`CREATE TRIGGER block_referrer_credit
		BEFORE UPDATE ON users
		WHEN NEW.referrals > OLD.referrals
		BEGIN SELECT RAISE(ABORT, 'credit rejected'); END`).Error; err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}
	defer db.Exec("DROP TRIGGER block_referrer_credit")

	_, _, err = service.LoginOrCreate(ctx, &auth.TelegramUser{ID: 7002, Username: "bob", FirstName: "Bob"}, referrer.ReferralCode)
	if err == nil {
		t.Fatal("expected error when referral credit fails")
	}

	// neither the new user nor a half-done credit may survive
	var userCount int64
	db.Model(&models.User{}).Where("telegram_id = ?", int64(7002)).Count(&userCount)
	if userCount != 0 {
		t.Errorf("expected user creation rolled back, found %d rows", userCount)
	}

	var updated models.User
	if err := db.Where("telegram_id = ?", referrer.TelegramID).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload referrer: %v", err)
	}
	if !updated.Bonus.IsZero() {
		t.Errorf("expected no bonus after rollback, got %s", updated.Bonus)
	}
	if updated.Referrals != 0 {
		t.Errorf("expected no referrals after rollback, got %d", updated.Referrals)
	}
}

func TestGetUserByTelegramIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := newTestAuthService(db)

	if _, err := service.GetUserByTelegramID(context.Background(), 424242); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
