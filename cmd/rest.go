package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-wabot/ui/rest"
	"github.com/AzielCF/az-wabot/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// newRestApp builds the admin API served next to the bot.
func newRestApp() (*fiber.App, error) {
	if len(cfg.App.BasicAuth) == 0 {
		return nil, fmt.Errorf("APP_BASIC_AUTH is required to serve the REST API, set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>]")
	}

	account := make(map[string]string)
	for _, basicAuth := range cfg.App.BasicAuth {
		ba := strings.SplitN(basicAuth, ":", 2)
		if len(ba) != 2 || ba[0] == "" || ba[1] == "" {
			return nil, fmt.Errorf("basic auth is not valid, use the format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             int(cfg.Whatsapp.MaxVideoSize) + 1<<20,
		AppName:               "az-wabot",
		DisableStartupMessage: true,
		ServerHeader:          "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	apiGroup := app.Group(cfg.App.BasePath + "/api")
	apiGroup.Use(basicauth.New(basicauth.Config{Users: account}))

	health := rest.Health{
		Version:   cfg.App.Version,
		Scheduler: taskScheduler,
		WhatsApp:  waAdapter,
		Workers:   workerPool,
	}
	if valkeyClient != nil {
		health.Valkey = valkeyClient
	}
	rest.InitRestHealth(apiGroup, health)
	rest.InitRestSchedule(apiGroup, scheduleService)

	return app, nil
}
