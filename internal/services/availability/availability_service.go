package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/models"
)

// Result is the availability verdict for a (username, state, district)
// triple. Uniqueness is per location, not global: the same username can
// exist in two districts.
type Result struct {
	IsAvailable bool     `json:"isAvailable"`
	ProfileURL  string   `json:"profileUrl,omitempty"`
	Suggested   []string `json:"suggested"`
}

const maxSuggestions = 3

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Check reports whether the triple is free, previews the public profile
// slug, and, when taken, offers up to three verified-free alternates.
func (s *Service) Check(ctx context.Context, username string, stateID, districtID int, excludeUserID *uuid.UUID) (Result, error) {
	taken, err := s.taken(ctx, username, stateID, districtID, excludeUserID)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		IsAvailable: !taken,
		Suggested:   []string{},
	}

	// an unknown location just omits the slug preview; anything else is
	// a real lookup failure
	url, err := s.profileURL(ctx, username, stateID, districtID)
	switch {
	case err == nil:
		res.ProfileURL = url
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Result{}, err
	}

	if taken {
		suggested, err := s.suggestions(ctx, username, stateID, districtID, excludeUserID)
		if err != nil {
			return Result{}, err
		}
		res.Suggested = suggested
	}

	return res, nil
}

func (s *Service) taken(ctx context.Context, username string, stateID, districtID int, excludeUserID *uuid.UUID) (bool, error) {
	q := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("username = ? AND state_id = ? AND district_id = ?", username, stateID, districtID)
	if excludeUserID != nil {
		q = q.Where("user_id <> ?", *excludeUserID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// profileURL previews the slug a claimed username would publish at:
// state/district/username, all lowercased.
func (s *Service) profileURL(ctx context.Context, username string, stateID, districtID int) (string, error) {
	var state models.State
	if err := s.DB.WithContext(ctx).First(&state, "id = ?", stateID).Error; err != nil {
		return "", err
	}
	var district models.District
	if err := s.DB.WithContext(ctx).First(&district, "id = ? AND state_id = ?", districtID, stateID).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s",
		strings.ToLower(state.Name),
		strings.ToLower(district.Name),
		strings.ToLower(username),
	), nil
}

func (s *Service) suggestions(ctx context.Context, base string, stateID, districtID int, excludeUserID *uuid.UUID) ([]string, error) {
	variants := []string{
		base + "ca",
		base + "123",
		fmt.Sprintf("%s%d", base, time.Now().Year()),
		"ca" + base,
		base + "audit",
	}

	suggested := []string{}
	for _, v := range variants {
		taken, err := s.taken(ctx, v, stateID, districtID, excludeUserID)
		if err != nil {
			return nil, err
		}
		if !taken {
			suggested = append(suggested, v)
		}
		if len(suggested) >= maxSuggestions {
			break
		}
	}
	return suggested, nil
}
