package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"floorplan-editor/internal/renderer/dsl"
	"floorplan-editor/internal/renderer/mapper"
	"floorplan-editor/internal/renderer/repository"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Render Handler
// ============================================================

// Store - кеш готовых документов.
type Store interface {
	Save(ctx context.Context, source, svg string, elements int) (*repository.Render, error)
	Get(ctx context.Context, id string) (*repository.Render, error)
}

type RenderHandler struct {
	store    Store
	renderer *mapper.Renderer
}

func NewRenderHandler(store Store, renderer *mapper.Renderer) *RenderHandler {
	return &RenderHandler{store: store, renderer: renderer}
}

type parseRequest struct {
	Code string `json:"code"`
}

// Parse компилирует исходный текст плана, рендерит SVG и отдает элементы со ссылкой на документ.
func (h *RenderHandler) Parse(c fiber.Ctx) error {
	log.Printf("[RENDER] Received request")
	log.Printf("[RENDER] Content-Length: %d", len(c.Body()))

	var req parseRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Printf("[RENDER] Decode error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "invalid JSON payload",
		})
	}
	if strings.TrimSpace(req.Code) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "No DSL code provided",
		})
	}

	elements, err := dsl.Compile(req.Code)
	if err != nil {
		log.Printf("[RENDER] Parse error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Parsing errors: " + err.Error(),
		})
	}

	svg, err := h.renderer.Render(elements)
	if err != nil {
		log.Printf("[RENDER] Render error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	saved, err := h.store.Save(c.Context(), req.Code, svg, len(elements))
	if err != nil {
		log.Printf("[RENDER] Store error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "failed to store rendered document",
		})
	}

	log.Printf("[RENDER] Rendered %d elements as %s", len(elements), saved.ID)
	return c.JSON(fiber.Map{
		"elements": elements,
		"svg_url":  "/api/svg/" + saved.ID,
	})
}

// SVG отдает сохраненный документ. Кеширование запрещено: клиент сам
// добавляет штамп запроса к ссылке.
func (h *RenderHandler) SVG(c fiber.Ctx) error {
	id := strings.TrimSuffix(c.Params("id"), ".svg")

	render, err := h.store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "SVG file not found",
			})
		}
		log.Printf("[RENDER] Store error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	c.Set("Content-Type", "image/svg+xml")
	c.Set("Cache-Control", "no-store")
	return c.SendString(render.SVG)
}
