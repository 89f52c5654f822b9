package rest

import (
	"github.com/AzielCF/az-wabot/pkg/msgworker"
	"github.com/AzielCF/az-wabot/pkg/utils"
	"github.com/AzielCF/az-wabot/schedule/application"
	"github.com/gofiber/fiber/v2"
)

// SchedulerStatusProvider reports the scheduler loop state.
type SchedulerStatusProvider interface {
	Status() application.SchedulerStatus
}

// ConnectionChecker reports whether the WhatsApp session is usable.
type ConnectionChecker interface {
	IsConnected() bool
}

// WorkerStatsProvider reports command worker pool statistics.
type WorkerStatsProvider interface {
	GetStats() msgworker.PoolStats
}

type Health struct {
	Version   string
	Scheduler SchedulerStatusProvider
	WhatsApp  ConnectionChecker
	Workers   WorkerStatsProvider
	Valkey    ConnectionChecker // nil when the store is not shared
}

// HealthReport is the body of GET /api/health.
type HealthReport struct {
	Version   string                      `json:"version"`
	WhatsApp  bool                        `json:"whatsapp_connected"`
	Valkey    *bool                       `json:"valkey_connected,omitempty"`
	Scheduler application.SchedulerStatus `json:"scheduler"`
	Workers   *msgworker.PoolStats        `json:"workers,omitempty"`
}

func InitRestHealth(app fiber.Router, handler Health) Health {
	app.Get("/health", handler.GetStatus)
	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	report := HealthReport{Version: h.Version}
	if h.Scheduler != nil {
		report.Scheduler = h.Scheduler.Status()
	}
	if h.WhatsApp != nil {
		report.WhatsApp = h.WhatsApp.IsConnected()
	}
	if h.Valkey != nil {
		connected := h.Valkey.IsConnected()
		report.Valkey = &connected
	}
	if h.Workers != nil {
		stats := h.Workers.GetStats()
		report.Workers = &stats
	}

	status := fiber.StatusOK
	code := "SUCCESS"
	// Without the lease every scan of a shared store is skipped.
	if !report.Scheduler.Running || !report.WhatsApp || (report.Valkey != nil && !*report.Valkey) {
		status = fiber.StatusServiceUnavailable
		code = "DEGRADED"
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    code,
		Message: "Health status retrieved",
		Results: report,
	})
}
