package api

import (
	"context"
	"time"

	"docvector/store"

	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	store      store.VectorStorer
	collection string
}

func NewCheckHandler(storer store.VectorStorer, collection string) *CheckHandler {
	return &CheckHandler{
		store:      storer,
		collection: collection,
	}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.ListDocuments(ctx, h.collection); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"result": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"result": "ok"})
}
