package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/logger"
	"github.com/caconnect/caconnect_be/internal/models"
)

// Reference data is static enough to sit in redis for a day; a cache
// failure always falls through to the database.
const cacheTTL = 24 * time.Hour

type Service struct {
	DB  *gorm.DB
	RDB *redis.Client
	Log *logger.Logger
}

func NewService(db *gorm.DB, rdb *redis.Client, log *logger.Logger) *Service {
	return &Service{DB: db, RDB: rdb, Log: log}
}

func (s *Service) Languages(ctx context.Context) ([]models.Language, error) {
	var out []models.Language
	err := s.cached(ctx, "ref:languages", &out, func() error {
		return s.DB.WithContext(ctx).
			Where("is_active = ?", true).
			Order("name").
			Find(&out).Error
	})
	return out, err
}

func (s *Service) Specializations(ctx context.Context) ([]models.Specialization, error) {
	var out []models.Specialization
	err := s.cached(ctx, "ref:specializations", &out, func() error {
		return s.DB.WithContext(ctx).
			Where("is_active = ?", true).
			Order("category_display_order, display_order").
			Find(&out).Error
	})
	return out, err
}

func (s *Service) States(ctx context.Context) ([]models.State, error) {
	var out []models.State
	err := s.cached(ctx, "ref:states", &out, func() error {
		return s.DB.WithContext(ctx).Order("name").Find(&out).Error
	})
	return out, err
}

func (s *Service) Districts(ctx context.Context, stateID int) ([]models.District, error) {
	var out []models.District
	key := fmt.Sprintf("ref:districts:%d", stateID)
	err := s.cached(ctx, key, &out, func() error {
		return s.DB.WithContext(ctx).
			Where("state_id = ?", stateID).
			Order("name").
			Find(&out).Error
	})
	return out, err
}

// cached is cache-aside: hit returns the cached JSON, miss runs the
// query and stores the result best-effort.
func (s *Service) cached(ctx context.Context, key string, dest interface{}, load func() error) error {
	if s.RDB != nil {
		raw, err := s.RDB.Get(ctx, key).Bytes()
		if err == nil {
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				return nil
			}
		} else if err != redis.Nil && s.Log != nil {
			s.Log.Warn("reference cache read failed", "key", key, "error", err)
		}
	}

	if err := load(); err != nil {
		return err
	}

	if s.RDB != nil {
		raw, err := json.Marshal(dest)
		if err == nil {
			if err := s.RDB.Set(ctx, key, raw, cacheTTL).Err(); err != nil && s.Log != nil {
				s.Log.Warn("reference cache write failed", "key", key, "error", err)
			}
		}
	}

	return nil
}
