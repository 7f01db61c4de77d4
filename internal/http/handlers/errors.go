package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pricewatch/internal/apperr"
	applog "pricewatch/internal/log"
)

const (
	msgUnavailable = "The watchlist service is temporarily unavailable. Please try again later."
	msgFailed      = "Could not retrieve your watchlist data at this time."
	msgNotFound    = "This item is no longer available."
)

// fail logs err and writes the matching JSON error body. Storage details stay in the log.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	if ve, ok := apperr.AsValidation(err); ok {
		applog.Info(c, action, mergeFields(fields, map[string]any{"field": ve.Field, "reason": ve.Reason}))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": ve.Reason, "field": ve.Field})
	}

	status, msg := fiber.StatusInternalServerError, msgFailed
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		status, msg = fiber.StatusNotFound, msgNotFound
	case apperr.ErrConnection:
		status, msg = fiber.StatusServiceUnavailable, msgUnavailable
	}
	c.Status(status)
	if status == fiber.StatusNotFound {
		applog.Info(c, action, fields)
	} else {
		applog.Error(c, action, err, fields)
	}
	return c.JSON(fiber.Map{"success": false, "error": msg})
}

func mergeFields(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
