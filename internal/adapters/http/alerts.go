package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
)

type alertRequest struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	UVIndex     float64  `json:"uv_index"`
	RiskLevel   string   `json:"risk_level"`
	Broadcast   bool     `json:"broadcast"`
}

// ListAlertsHandler returns the most recent alerts (?limit=, default 20).
func ListAlertsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		alerts, err := deps.Alerts.List(c.UserContext(), c.QueryInt("limit", 20))
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(alerts)
	}
}

// CurrentAlertHandler returns the latest alert.
func CurrentAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := deps.Alerts.Current(c.UserContext())
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(a)
	}
}

// GetAlertHandler returns one alert.
func GetAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := deps.Alerts.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(a)
	}
}

// CreateAlertHandler stores a manually issued alert and optionally
// broadcasts it. Admin only.
func CreateAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req alertRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Temperature == nil || req.Humidity == nil {
			return errBadRequest(c, "temperature and humidity are required")
		}

		a := domain.HeatAlert{
			Temperature: *req.Temperature,
			Humidity:    *req.Humidity,
			UVIndex:     req.UVIndex,
			RiskLevel:   domain.RiskLevel(req.RiskLevel),
		}
		if err := deps.Alerts.Create(c.UserContext(), &a); err != nil {
			return fromError(c, err)
		}
		metrics.AlertsIssued.WithLabelValues(string(a.RiskLevel)).Inc()

		if req.Broadcast {
			if _, err := deps.Alerts.Broadcast(c.UserContext(), &a); err != nil {
				LoggerFromCtx(c.UserContext()).Warn("alert broadcast failed", "alert_id", a.ID, "error", err)
			}
		}
		c.Location("/v1/alerts/" + a.ID)
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// DeleteAlertHandler removes an alert. Admin only.
func DeleteAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Alerts.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fromError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
