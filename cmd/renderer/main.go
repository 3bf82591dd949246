package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"floorplan-editor/internal/common/config"
	"floorplan-editor/internal/common/middleware"
	"floorplan-editor/internal/renderer/handlers"
	"floorplan-editor/internal/renderer/mapper"
	"floorplan-editor/internal/renderer/repository"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Render Service
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.RenderDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}
	if n, err := repo.Prune(context.Background(), cfg.RenderKeep); err != nil {
		log.Printf("[RENDER] prune failed: %v", err)
	} else if n > 0 {
		log.Printf("[RENDER] pruned %d cached documents", n)
	}

	renderer := mapper.NewRenderer(cfg.RenderScale, cfg.RenderMarkers)
	renderHandler := handlers.NewRenderHandler(repo, renderer)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Render Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Routes
	// ============================================================

	handlers.Register(app, renderHandler, repo)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Render Service on %s (env: %s, markers: %t)", addr, cfg.Environment, cfg.RenderMarkers)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
