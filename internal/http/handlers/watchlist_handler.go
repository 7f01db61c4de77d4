package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pricewatch/internal/apperr"
	applog "pricewatch/internal/log"
	"pricewatch/internal/services"
)

type WatchlistHandler struct {
	Watch   *services.WatchlistService
	Compare *services.ComparisonService
}

// watchRequest accepts both JSON bodies and form posts.
type watchRequest struct {
	ProductID string `json:"productId" form:"productId"`
	Source    string `json:"source" form:"source"`
}

func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Compare.Comparisons(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "watchlist.list.fail", err, nil)
	}
	applog.Info(c, "watchlist.list", map[string]any{"items": len(items)})
	return c.JSON(fiber.Map{"success": true, "items": items})
}

func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	req, err := parseWatch(c)
	if err != nil {
		return fail(c, "watchlist.add.invalid", err, nil)
	}
	res, err := h.Watch.Add(c.UserContext(), userID(c), req.ProductID, req.Source)
	if err != nil {
		return fail(c, "watchlist.add.fail", err, map[string]any{"product": req.ProductID, "source": req.Source})
	}
	applog.Audit(c, "watchlist.add", map[string]any{
		"product": req.ProductID,
		"source":  req.Source,
		"entry":   res.EntryID,
		"created": res.Created,
	})
	msg := "Product added to your watchlist."
	status := fiber.StatusCreated
	if !res.Created {
		msg = "Product is already on your watchlist."
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": msg,
		"entryId": res.EntryID,
		"created": res.Created,
	})
}

func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	req, err := parseWatch(c)
	if err != nil {
		return fail(c, "watchlist.remove.invalid", err, nil)
	}
	removed, err := h.Watch.Remove(c.UserContext(), userID(c), req.ProductID, req.Source)
	if err != nil {
		return fail(c, "watchlist.remove.fail", err, map[string]any{"product": req.ProductID, "source": req.Source})
	}
	applog.Audit(c, "watchlist.remove", map[string]any{
		"product": req.ProductID,
		"source":  req.Source,
		"removed": removed,
	})
	msg := "Product removed from your watchlist."
	if !removed {
		msg = "Product was not on your watchlist."
	}
	return c.JSON(fiber.Map{"success": true, "message": msg, "removed": removed})
}

func parseWatch(c *fiber.Ctx) (watchRequest, error) {
	var req watchRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperr.Validation("body", "expected productId and source")
	}
	return req, nil
}
