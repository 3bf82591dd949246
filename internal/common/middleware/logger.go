package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger пишет одну строку на запрос (путь без query).
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] [HTTP] ${status} - ${latency} ${method} ${path} (${bytesSent} bytes)\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
