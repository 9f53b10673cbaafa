package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"trophy-award-system/models"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService owns the trophy definitions. Definitions are admin-managed
// config, loaded once per evaluation pass and read-only to the engine.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// EnsureSeedDefinitions inserts the built-in catalog, skipping codes that
// already exist (idempotent across restarts).
func (s *CatalogService) EnsureSeedDefinitions() error {
	for _, def := range models.SeedTrophies {
		def.Active = true
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&def).Error; err != nil {
			return fmt.Errorf("seed trophy %q: %w", def.Code, err)
		}
	}
	return nil
}

// LoadDefinitions fetches the active catalog, drops misconfigured entries
// (logged, never fatal) and returns it in display order.
func (s *CatalogService) LoadDefinitions() ([]models.TrophyDefinition, error) {
	var defs []models.TrophyDefinition
	if err := s.DB.Where("active = ?", true).Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load trophy catalog: %w", err)
	}

	valid := defs[:0]
	for _, def := range defs {
		if err := ValidateDefinition(def); err != nil {
			log.Printf("[Catalog] ⚠️ Excluding trophy %s (%s): %v", def.Code, def.ID, err)
			continue
		}
		valid = append(valid, def)
	}

	SortDefinitions(valid)
	return valid, nil
}

// FindByID returns one definition, ErrTrophyNotFound when absent or inactive.
func (s *CatalogService) FindByID(id string) (*models.TrophyDefinition, error) {
	var def models.TrophyDefinition
	err := s.DB.Where("id = ? AND active = ?", id, true).First(&def).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrTrophyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find trophy %s: %w", id, err)
	}
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	return &def, nil
}

// CreateDefinition stores an admin-supplied definition. The code is derived
// from the name so catalog entries get stable, URL-safe identifiers.
func (s *CatalogService) CreateDefinition(def models.TrophyDefinition) (*models.TrophyDefinition, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrTrophyMisconfigured)
	}
	if def.Code == "" {
		def.Code = slug.Make(def.Name)
	}
	def.Repeatable = def.ConditionType == models.ConditionMonthlyBestProfit
	def.Active = true
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	if err := s.DB.Create(&def).Error; err != nil {
		return nil, fmt.Errorf("create trophy %q: %w", def.Code, err)
	}
	return &def, nil
}

// ValidateDefinition rejects catalog entries the evaluator cannot handle.
// A rejected entry is a ConfigurationError: it is excluded from evaluation,
// never surfaced as 0% or 100% progress.
func ValidateDefinition(def models.TrophyDefinition) error {
	switch def.ConditionType {
	case models.ConditionCumulativeRevenue,
		models.ConditionCumulativeProfit,
		models.ConditionCalendarYearProfit:
		if def.ThresholdValue.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: threshold must be positive, got %s", ErrTrophyMisconfigured, def.ThresholdValue)
		}
	case models.ConditionRollingWindowRevenue, models.ConditionRollingWindowProfit:
		if def.ThresholdValue.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: threshold must be positive, got %s", ErrTrophyMisconfigured, def.ThresholdValue)
		}
		if def.WindowDays <= 0 {
			return fmt.Errorf("%w: rolling window requires positive window_days", ErrTrophyMisconfigured)
		}
	case models.ConditionMonthlyBestProfit:
		if !def.Repeatable {
			return fmt.Errorf("%w: monthly_best_profit must be repeatable", ErrTrophyMisconfigured)
		}
	default:
		return fmt.Errorf("%w: unknown condition type %q", ErrTrophyMisconfigured, def.ConditionType)
	}
	return nil
}

// SortDefinitions orders the catalog for display: ascending threshold,
// threshold-less types last, ties broken by code so the order is stable and
// deterministic.
func SortDefinitions(defs []models.TrophyDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		li, lj := hasThreshold(defs[i]), hasThreshold(defs[j])
		if li != lj {
			return li // thresholded entries first
		}
		if li && !defs[i].ThresholdValue.Equal(defs[j].ThresholdValue) {
			return defs[i].ThresholdValue.LessThan(defs[j].ThresholdValue)
		}
		return defs[i].Code < defs[j].Code
	})
}

func hasThreshold(def models.TrophyDefinition) bool {
	return def.ConditionType != models.ConditionMonthlyBestProfit
}
