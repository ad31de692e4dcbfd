package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hamsterverse/internal/models"
)

const (
	leaderboardKey = "hamsterverse:leaderboard:top"
	leaderboardTTL = 30 * time.Second
)

// LeaderboardEntry is a single row of the public leaderboard
type LeaderboardEntry struct {
	TelegramID int64           `json:"telegramId"`
	Username   string          `json:"username"`
	FirstName  string          `json:"firstName"`
	Balance    decimal.Decimal `json:"balance"`
}

// LeaderboardService serves the top-balance ranking, cached in Redis with a
// short TTL so the query doesn't hit Postgres on every page load
type LeaderboardService struct {
	db    *gorm.DB
	redis *redis.Client
	limit int
}

// NewLeaderboardService creates a new LeaderboardService. The Redis client
// may be nil, in which case every request goes straight to the database.
func NewLeaderboardService(db *gorm.DB, rdb *redis.Client, limit int) *LeaderboardService {
	if limit <= 0 {
		limit = 50
	}
	return &LeaderboardService{
		db:    db,
		redis: rdb,
		limit: limit,
	}
}

// Top returns the highest-balance users, freshest-cache first
func (s *LeaderboardService) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	if entries, ok := s.fromCache(ctx); ok {
		return entries, nil
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("balance DESC").
		Limit(s.limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, LeaderboardEntry{
			TelegramID: u.TelegramID,
			Username:   u.Username,
			FirstName:  u.FirstName,
			Balance:    u.Balance,
		})
	}

	s.toCache(ctx, entries)
	return entries, nil
}

func (s *LeaderboardService) fromCache(ctx context.Context) ([]LeaderboardEntry, bool) {
	if s.redis == nil {
		return nil, false
	}

	data, err := s.redis.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("leaderboard cache read failed: %v", err)
		}
		return nil, false
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *LeaderboardService) toCache(ctx context.Context, entries []LeaderboardEntry) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, leaderboardKey, data, leaderboardTTL).Err(); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
}
