// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"cup-bot/middleware"
	"cup-bot/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProgressionDeps is what the HTTP routes read from.
type ProgressionDeps struct {
	Store      *services.CounterStore
	Ranks      *services.RankResolver
	Exporter   *services.SnapshotExporter // nil when object storage is not configured
	AdminToken string
	Logger     *zap.Logger
}

func SetupProgressionRoutes(app *fiber.App, deps ProgressionDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	secured := app.Group("/", middleware.AdminAuthMiddleware(deps.AdminToken, deps.Logger))

	secured.Get("/users/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Params("id")
		ctx := c.UserContext()

		counts, err := deps.Store.GetCounts(ctx, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}
		stored, err := deps.Store.StoredPrestige(ctx, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}

		response := fiber.Map{
			"id":              userID,
			"cups":            counts.Cups,
			"legendaries":     counts.Legendaries,
			"stored_prestige": stored,
			"prestige":        nil,
			"legendary_rate":  nil,
			"can_prestige":    counts.Cups >= services.PrestigeThreshold,
		}

		// the rank lives in chat roles; report counters even if that lookup fails
		rank, err := deps.Ranks.PrestigeLevel(ctx, userID)
		if err != nil {
			deps.Logger.Warn("⚠️ Rank lookup failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			response["prestige"] = rank
			response["legendary_rate"] = services.LegendaryRate(rank)
		}
		return c.JSON(response)
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		rows, err := deps.Store.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(rows)
	})

	secured.Post("/admin/export", func(c *fiber.Ctx) error {
		if deps.Exporter == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "snapshot export is not configured",
			})
		}
		url, err := deps.Exporter.Export(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "snapshot export failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"url": url})
	})
}
