// Package flock keeps the roster of chickens in insertion order.
package flock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/metrics"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

var (
	// ErrNameRequired indicates a chicken submitted without a name.
	ErrNameRequired = errors.New("chicken name is required")
	// ErrInvalidBirthDate indicates a birth date that is not a YYYY-MM-DD day.
	ErrInvalidBirthDate = errors.New("invalid date of birth")
	// ErrInvalidAge indicates a negative age in weeks.
	ErrInvalidAge = errors.New("age in weeks must not be negative")
)

// Service appends to and reads the flock roster. Appends are serialized.
type Service struct {
	store  kv.Store
	ids    *models.IDSource
	logger *zap.Logger

	mu sync.Mutex
}

// NewService wires a roster service. A nil clock uses time.Now for entry IDs.
func NewService(store kv.Store, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, ids: models.NewIDSource(now), logger: logger}
}

// Add validates input and appends a new chicken to the end of the roster.
// A non-durable write returns the new entry along with the warning error.
func (s *Service) Add(ctx context.Context, input models.ChickenInput) (models.Chicken, error) {
	chicken, err := build(input)
	if err != nil {
		metrics.RecordOperation("flock", "add", false)
		return models.Chicken{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.storedEntries(ctx)
	if err != nil {
		return models.Chicken{}, err
	}
	for _, item := range stored {
		s.ids.ObserveRaw(item)
	}
	chicken.ID = s.ids.Next()

	encoded, err := json.Marshal(chicken)
	if err != nil {
		return models.Chicken{}, fmt.Errorf("encode chicken: %w", err)
	}

	// Stored entries are carried forward untouched, unreadable ones included.
	err = kv.SaveJSON(ctx, s.store, kv.ChickensKey, append(stored, encoded))
	metrics.RecordOperation("flock", "add", err == nil)
	if err != nil && !kv.IsWarning(err) {
		return models.Chicken{}, fmt.Errorf("save chickens: %w", err)
	}

	s.logger.Info("chicken added",
		zap.String("id", chicken.ID),
		zap.String("name", chicken.Name),
		zap.String("breed", chicken.Breed),
		zap.Int("photo_bytes", len(chicken.Photo)))
	return chicken, err
}

func (s *Service) storedEntries(ctx context.Context) ([]json.RawMessage, error) {
	stored, err := kv.LoadRawList(ctx, s.store, kv.ChickensKey)
	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, kv.ErrNotFound):
		return nil, nil
	case errors.Is(err, kv.ErrMalformed):
		metrics.RecordMalformed("flock")
		s.logger.Warn("unreadable roster will be replaced", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load chickens: %w", err)
	}
}

// List returns the roster in insertion order. Invalid entries are skipped and a roster
// that is not a list at all reads as empty.
func (s *Service) List(ctx context.Context) ([]models.Chicken, error) {
	roster, skipped, err := kv.LoadJSONList[models.Chicken](ctx, s.store, kv.ChickensKey)
	switch {
	case err == nil:
		if skipped > 0 {
			metrics.RecordMalformed("flock")
			s.logger.Warn("skipped malformed chicken entries", zap.Int("skipped", skipped))
		}
		return roster, nil
	case errors.Is(err, kv.ErrNotFound):
		return nil, nil
	case errors.Is(err, kv.ErrMalformed):
		metrics.RecordMalformed("flock")
		s.logger.Warn("malformed roster read as empty", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load chickens: %w", err)
	}
}

// Count returns the flock size.
func (s *Service) Count(ctx context.Context) (int, error) {
	roster, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(roster), nil
}

func build(input models.ChickenInput) (models.Chicken, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Chicken{}, ErrNameRequired
	}

	breed := strings.TrimSpace(input.Breed)
	if breed == "" {
		breed = models.DefaultBreed
	}

	chicken := models.Chicken{
		Name:          name,
		Breed:         breed,
		SpecificBreed: strings.TrimSpace(input.SpecificBreed),
		Photo:         input.Photo,
		Notes:         strings.TrimSpace(input.Notes),
	}

	if dob := strings.TrimSpace(input.DateOfBirth); dob != "" {
		day, err := models.ParseDayKey(dob)
		if err != nil {
			return models.Chicken{}, fmt.Errorf("%w: %q", ErrInvalidBirthDate, dob)
		}
		chicken.DateOfBirth = day
	}

	if input.AgeInWeeks != nil {
		if *input.AgeInWeeks < 0 {
			return models.Chicken{}, ErrInvalidAge
		}
		weeks := *input.AgeInWeeks
		chicken.AgeInWeeks = &weeks
	}

	// Without a birth date or weeks snapshot the chicken starts at age 0.
	if chicken.DateOfBirth == "" && chicken.AgeInWeeks == nil {
		zero := 0
		chicken.AgeInWeeks = &zero
	}

	return chicken, nil
}
