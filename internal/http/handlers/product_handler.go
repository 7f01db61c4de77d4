package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pricewatch/internal/services"
)

type ProductHandler struct {
	Compare *services.ComparisonService
}

// Prices lists the latest price per source for one product. ?source= narrows it.
func (h *ProductHandler) Prices(c *fiber.Ctx) error {
	pid := c.Params("id")
	res, err := h.Compare.ProductPrices(c.UserContext(), pid, c.Query("source"))
	if err != nil {
		return fail(c, "product.prices.fail", err, map[string]any{"product": pid})
	}
	p := res.Product
	return c.JSON(fiber.Map{
		"success": true,
		"product": fiber.Map{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"imageUrl":    p.ImageURL,
			"category":    p.Category,
			"brand":       p.Brand,
		},
		"prices": res.Prices,
	})
}
