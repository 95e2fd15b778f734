package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/calorsos/calorsos/internal/pkg/metrics"
)

type fakeStat struct{}

func (fakeStat) AcquiredConns() int32 { return 3 }
func (fakeStat) IdleConns() int32     { return 7 }
func (fakeStat) TotalConns() int32    { return 10 }

func TestHandler_ExposesRequestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(metrics.Middleware())
	app.Get("/v1/zones/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", metrics.Handler())

	metrics.UpdateDBPoolMetrics(fakeStat{})

	if _, err := app.Test(httptest.NewRequest("GET", "/v1/zones/abc", nil)); err != nil {
		t.Fatal(err)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`calorsos_http_requests_total{method="GET",path="/v1/zones/:id",status="200"}`,
		`calorsos_db_pool_conns_open 10`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
