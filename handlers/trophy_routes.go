// handlers/trophy_routes.go
package handlers

import (
	"context"
	"errors"
	"time"

	"trophy-award-system/middleware"
	"trophy-award-system/models"
	"trophy-award-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func SetupTrophyRoutes(app *fiber.App, awardingService *services.AwardingService, catalogService *services.CatalogService, participantService *services.ParticipantService, ledger *services.AwardLedger) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Progress page: read-only, safe to call at any time.
	securedGroup.Get("/user/trophies", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		progress, err := awardingService.GetProgress(userID, time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to evaluate trophy progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"trophies": progress})
	})

	securedGroup.Get("/user/trophies/awards", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		awards, err := ledger.ListFor(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch awards",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"awards": awards, "count": len(awards)})
	})

	securedGroup.Get("/user/trophies/stream", ledger.StreamParticipantAwardsSSE)

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Get("/trophies", func(c *fiber.Ctx) error {
		defs, err := catalogService.LoadDefinitions()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load catalog",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"trophies": defs, "count": len(defs)})
	})

	adminGroup.Post("/trophies", func(c *fiber.Ctx) error {
		var req struct {
			Name           string               `json:"name"`
			Description    string               `json:"description"`
			IconEmoji      string               `json:"icon_emoji"`
			ConditionType  models.ConditionType `json:"condition_type"`
			ThresholdValue decimal.Decimal      `json:"threshold_value"`
			WindowDays     int                  `json:"window_days"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		def, err := catalogService.CreateDefinition(models.TrophyDefinition{
			Name:           req.Name,
			Description:    req.Description,
			IconEmoji:      req.IconEmoji,
			ConditionType:  req.ConditionType,
			ThresholdValue: req.ThresholdValue,
			WindowDays:     req.WindowDays,
		})
		if errors.Is(err, services.ErrTrophyMisconfigured) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create trophy",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(def)
	})

	adminGroup.Post("/trophies/award", func(c *fiber.Ctx) error {
		var req struct {
			ParticipantID string           `json:"participant_id"`
			TrophyID      string           `json:"trophy_id"`
			ValueAchieved *decimal.Decimal `json:"value_achieved"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.ParticipantID == "" || req.TrophyID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant_id and trophy_id are required"})
		}

		known, err := participantService.Exists(req.ParticipantID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to look up participant",
				"cause": err.Error(),
			})
		}
		if !known {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": services.ErrParticipantNotFound.Error()})
		}

		rec, err := awardingService.ManualAward(req.ParticipantID, req.TrophyID, req.ValueAchieved, time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrManualGrantConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrTrophyNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "manual award failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	adminGroup.Post("/sweep/run", func(c *fiber.Ctx) error {
		asOf := time.Now().UTC().AddDate(0, 0, -1)
		if q := c.Query("as_of"); q != "" {
			parsed, err := time.Parse(models.DayLayout, q)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "as_of must be YYYY-MM-DD"})
			}
			asOf = parsed
		}

		result, err := awardingService.RunAutomaticSweep(context.Background(), asOf)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "sweep failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	adminGroup.Get("/participants/:id/trophies", func(c *fiber.Ctx) error {
		awards, err := ledger.ListFor(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch awards",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"awards": awards, "count": len(awards)})
	})
}
