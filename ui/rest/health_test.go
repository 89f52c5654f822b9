package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-wabot/schedule/application"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct{ status application.SchedulerStatus }

func (f fakeScheduler) Status() application.SchedulerStatus { return f.status }

type fakeConnection bool

func (f fakeConnection) IsConnected() bool { return bool(f) }

func TestHealth(t *testing.T) {
	cases := []struct {
		name      string
		running   bool
		connected bool
		want      int
		code      string
	}{
		{"healthy", true, true, http.StatusOK, "SUCCESS"},
		{"disconnected", true, false, http.StatusServiceUnavailable, "DEGRADED"},
		{"scheduler stopped", false, true, http.StatusServiceUnavailable, "DEGRADED"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			app := fiber.New()
			InitRestHealth(app.Group("/api"), Health{
				Version:   "v1.0.0",
				Scheduler: fakeScheduler{status: application.SchedulerStatus{Running: c.running, Pending: 3}},
				WhatsApp:  fakeConnection(c.connected),
			})

			status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			require.Equal(t, c.want, status)
			assert.Equal(t, c.code, env.Code)
			assert.Contains(t, string(env.Results), `"pending":3`)
		})
	}
}

func TestHealth_ValkeyLease(t *testing.T) {
	cases := []struct {
		name   string
		valkey ConnectionChecker
		want   int
		field  string
	}{
		{"not shared", nil, http.StatusOK, ""},
		{"lease reachable", fakeConnection(true), http.StatusOK, `"valkey_connected":true`},
		{"lease unreachable", fakeConnection(false), http.StatusServiceUnavailable, `"valkey_connected":false`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			app := fiber.New()
			InitRestHealth(app.Group("/api"), Health{
				Scheduler: fakeScheduler{status: application.SchedulerStatus{Running: true}},
				WhatsApp:  fakeConnection(true),
				Valkey:    c.valkey,
			})

			status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			require.Equal(t, c.want, status)
			if c.field == "" {
				assert.NotContains(t, string(env.Results), "valkey_connected")
			} else {
				assert.Contains(t, string(env.Results), c.field)
			}
		})
	}
}
