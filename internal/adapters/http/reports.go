package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
)

type reportRequest struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photo_url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// SubmitReportHandler stores a community report for the authenticated user.
func SubmitReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req reportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}
		if req.PhotoURL != "" && !strings.HasPrefix(req.PhotoURL, "https://") && !strings.HasPrefix(req.PhotoURL, "http://") {
			return errBadRequest(c, "photo_url must be an http(s) URL")
		}

		r := domain.Report{
			UserID:      userID(c),
			Kind:        domain.LocationKind(req.Type),
			Name:        req.Name,
			Description: req.Description,
			PhotoURL:    req.PhotoURL,
			GeoPoint:    domain.GeoPoint{Lat: *req.Latitude, Lon: *req.Longitude},
		}
		if err := deps.Reports.Submit(c.UserContext(), &r); err != nil {
			return fromError(c, err)
		}
		metrics.ReportsSubmitted.WithLabelValues(string(r.Kind)).Inc()
		c.Location("/v1/reports/" + r.ID)
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// ListReportsHandler lists reports, newest first. Admins see every report and
// may filter by ?user_id=; everyone else sees only their own.
func ListReportsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.ReportFilter{
			Kind:   domain.LocationKind(c.Query("type")),
			Status: domain.ReportStatus(c.Query("status")),
			UserID: userID(c),
		}
		if hasRole(c, deps.Auth.AdminRole) {
			filter.UserID = c.Query("user_id")
		}

		reports, err := deps.Reports.List(c.UserContext(), filter)
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(paginate(c, reports, pageParams(c)))
	}
}

// GetReportHandler returns one report. Non-admins can only read their own;
// other people's reports look missing.
func GetReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := deps.Reports.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fromError(c, err)
		}
		if r.UserID != userID(c) && !hasRole(c, deps.Auth.AdminRole) {
			return errNotFound(c, "report not found")
		}
		return c.JSON(r)
	}
}

// ValidateReportHandler accepts a pending report and publishes the matching
// location. Admin only.
func ValidateReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := deps.Reports.Validate(c.UserContext(), c.Params("id"), userID(c))
		if err != nil {
			return fromError(c, err)
		}
		metrics.ReportsReviewed.WithLabelValues(string(domain.ReportValidated)).Inc()
		return c.Status(fiber.StatusCreated).JSON(loc)
	}
}

// RejectReportHandler rejects a pending report. Admin only.
func RejectReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := deps.Reports.Reject(c.UserContext(), c.Params("id"))
		if err != nil {
			return fromError(c, err)
		}
		metrics.ReportsReviewed.WithLabelValues(string(domain.ReportRejected)).Inc()
		return c.JSON(r)
	}
}

// DeleteReportHandler removes a report. Admin only.
func DeleteReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Reports.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fromError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
