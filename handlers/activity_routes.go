// handlers/activity_routes.go
package handlers

import (
	"time"

	"trophy-award-system/middleware"
	"trophy-award-system/models"
	"trophy-award-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func SetupActivityRoutes(app *fiber.App, activityService *services.ActivityService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// One entry per calendar day; resubmitting the same day edits it.
	securedGroup.Post("/user/activity", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			EntryDate string          `json:"entry_date"` // YYYY-MM-DD, defaults to today
			Revenue   decimal.Decimal `json:"revenue"`
			Profit    decimal.Decimal `json:"profit"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		day := time.Now().UTC()
		if req.EntryDate != "" {
			parsed, err := time.Parse(models.DayLayout, req.EntryDate)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entry_date must be YYYY-MM-DD"})
			}
			day = parsed
		}
		if req.Revenue.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "revenue must not be negative"})
		}

		rec, err := activityService.UpsertEntry(userID, day, req.Revenue, req.Profit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save activity entry",
				"cause": err.Error(),
			})
		}
		return c.JSON(rec)
	})

	securedGroup.Get("/user/activity", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		to := time.Now().UTC()
		if q := c.Query("to"); q != "" {
			parsed, err := time.Parse(models.DayLayout, q)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "to must be YYYY-MM-DD"})
			}
			to = parsed
		}
		var from time.Time
		if q := c.Query("from"); q != "" {
			parsed, err := time.Parse(models.DayLayout, q)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from must be YYYY-MM-DD"})
			}
			from = parsed
		}

		records, err := activityService.FetchRecords(userID, from, to)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch activity",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"records": records, "count": len(records)})
	})
}
