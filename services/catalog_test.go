package services

import (
	"errors"
	"testing"

	"trophy-award-system/models"

	"github.com/shopspring/decimal"
)

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name    string
		def     models.TrophyDefinition
		wantErr bool
	}{
		{
			name: "valid cumulative revenue",
			def: models.TrophyDefinition{
				ConditionType:  models.ConditionCumulativeRevenue,
				ThresholdValue: decimal.NewFromInt(10_000_000),
			},
		},
		{
			name: "zero threshold rejected",
			def: models.TrophyDefinition{
				ConditionType:  models.ConditionCumulativeProfit,
				ThresholdValue: decimal.Zero,
			},
			wantErr: true,
		},
		{
			name: "negative threshold rejected",
			def: models.TrophyDefinition{
				ConditionType:  models.ConditionCalendarYearProfit,
				ThresholdValue: decimal.NewFromInt(-5),
			},
			wantErr: true,
		},
		{
			name: "rolling window needs window days",
			def: models.TrophyDefinition{
				ConditionType:  models.ConditionRollingWindowRevenue,
				ThresholdValue: decimal.NewFromInt(100),
			},
			wantErr: true,
		},
		{
			name: "valid rolling window",
			def: models.TrophyDefinition{
				ConditionType:  models.ConditionRollingWindowProfit,
				ThresholdValue: decimal.NewFromInt(100),
				WindowDays:     90,
			},
		},
		{
			name: "monthly best must be repeatable",
			def: models.TrophyDefinition{
				ConditionType: models.ConditionMonthlyBestProfit,
			},
			wantErr: true,
		},
		{
			name: "valid monthly best",
			def: models.TrophyDefinition{
				ConditionType: models.ConditionMonthlyBestProfit,
				Repeatable:    true,
			},
		},
		{
			name: "unknown condition type rejected",
			def: models.TrophyDefinition{
				ConditionType:  "weekly_streak",
				ThresholdValue: decimal.NewFromInt(100),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefinition(tt.def)
			if tt.wantErr {
				if !errors.Is(err, ErrTrophyMisconfigured) {
					t.Errorf("ValidateDefinition() = %v, want ErrTrophyMisconfigured", err)
				}
			} else if err != nil {
				t.Errorf("ValidateDefinition() = %v, want nil", err)
			}
		})
	}
}

func TestSortDefinitions(t *testing.T) {
	defs := []models.TrophyDefinition{
		{Code: "monthly-top-earner", ConditionType: models.ConditionMonthlyBestProfit, Repeatable: true},
		{Code: "revenue-100m", ConditionType: models.ConditionCumulativeRevenue, ThresholdValue: decimal.NewFromInt(100_000_000)},
		{Code: "profit-10m", ConditionType: models.ConditionCumulativeProfit, ThresholdValue: decimal.NewFromInt(10_000_000)},
		{Code: "revenue-10m", ConditionType: models.ConditionCumulativeRevenue, ThresholdValue: decimal.NewFromInt(10_000_000)},
	}

	SortDefinitions(defs)

	want := []string{"profit-10m", "revenue-10m", "revenue-100m", "monthly-top-earner"}
	for i, code := range want {
		if defs[i].Code != code {
			t.Fatalf("defs[%d].Code = %q, want %q (full order: %v)", i, defs[i].Code, code, codes(defs))
		}
	}
}

func codes(defs []models.TrophyDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Code
	}
	return out
}
