package changes

import (
	"errors"

	"bibsync/core/logger"
	"bibsync/core/reconcile"
	"bibsync/feature/history"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for change scans. Every location a client
// sends is resolved through locations before it reaches the service.
type Handler struct {
	service   *Service
	locations *Locations
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, locations *Locations) *Handler {
	return &Handler{service: service, locations: locations}
}

// RegisterRoutes registers the change routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/changes")
	group.Post("/scan", h.HandleScan)
	group.Post("/accept", h.HandleAccept)
	group.Get("/history", h.HandleHistory)
}

// HandleScan scans a document for external changes.
// @Summary Scan Document
// @Description Compares the document against its baseline and returns the detected changes, resolved against the working copy.
// @Tags changes
// @Accept json
// @Produce json
// @Param request body ScanRequest true "Documents to compare"
// @Success 200 {object} Report "Scan Report"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 403 {object} map[string]string "Location outside the allowed root"
// @Failure 422 {object} Report "Document could not be loaded"
// @Failure 500 {object} Report "Internal Server Error"
// @Router /changes/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req, err := h.locations.scanRequest(req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := h.service.Scan(c.Context(), req)
	if err != nil {
		if report == nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		l.Warn("Scan request failed", zap.String("document", req.Document), zap.Error(err))
		return c.Status(statusFor(err)).JSON(report)
	}

	return c.JSON(report)
}

// HandleAccept applies selected changes from a reviewed scan.
// @Summary Accept Changes
// @Description Rescans the document and applies the selected changes of scan_id to the working copy. The request is refused when the changes found now differ from the ones scan_id reported. Nothing is written unless confirmed is true and dry_run is false; the scanned document then becomes the new baseline.
// @Tags changes
// @Accept json
// @Produce json
// @Param request body AcceptRequest true "Documents and change selection"
// @Success 200 {object} AcceptResult "Accept Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 403 {object} map[string]string "Location outside the allowed root"
// @Failure 404 {object} map[string]string "Unknown or expired scan"
// @Failure 409 {object} map[string]string "Document changed since the scan"
// @Failure 422 {object} map[string]string "Document could not be loaded"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /changes/accept [post]
func (h *Handler) HandleAccept(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req AcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req, err := h.locations.acceptRequest(req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.service.Accept(c.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			l.Error("Accept request failed", zap.String("document", req.Document), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleHistory lists recorded scans.
// @Summary Scan History
// @Description Lists recorded scans, newest first, optionally for a single document.
// @Tags changes
// @Produce json
// @Param document query string false "Document location"
// @Param limit query int false "Maximum number of scans" default(20)
// @Success 200 {object} map[string]interface{} "Scan History"
// @Failure 403 {object} map[string]string "Location outside the allowed root"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /changes/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	document, err := h.locations.Resolve(c.Query("document"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	scans, err := h.service.History(c.Context(), document, c.QueryInt("limit", history.DefaultLimit))
	if err != nil {
		l.Error("History query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"scans": scans,
		"count": len(scans),
	})
}

func statusFor(err error) int {
	var le *reconcile.LoadError
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNoOutput), errors.Is(err, ErrInvalidSelection):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrOutsideRoot):
		return fiber.StatusForbidden
	case errors.Is(err, ErrUnknownScan):
		return fiber.StatusNotFound
	case errors.Is(err, ErrScanMismatch):
		return fiber.StatusConflict
	case errors.As(err, &le):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
