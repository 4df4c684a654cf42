package handlers

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Field: "name", Message: "is required"}, fiber.StatusBadRequest},
		{"transition", &services.TransitionError{Entity: "PROJECT", From: "Pending", To: "Closed"}, fiber.StatusConflict},
		{"stale status", services.ErrStatusConflict, fiber.StatusConflict},
		{"module closed", &services.ModuleClosedError{Module: "TimeLogs", ProjectStatus: "Closed"}, fiber.StatusConflict},
		{"duplicate", fmt.Errorf("create: %w", repositories.ErrDuplicateKey), fiber.StatusConflict},
		{"not found", fmt.Errorf("get: %w", repositories.ErrNotFound), fiber.StatusNotFound},
		{"credentials", services.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"attachments off", services.ErrAttachmentsDisabled, fiber.StatusServiceUnavailable},
		{"unexpected", errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, zap.NewNop(), tt.err) })
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestPaging(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		limit, offset := paging(c, 50)
		return c.JSON(fiber.Map{"limit": limit, "offset": offset})
	})
	cases := map[string]string{
		"/":                     `{"limit":50,"offset":0}`,
		"/?limit=10&offset=20":  `{"limit":10,"offset":20}`,
		"/?limit=abc&offset=-1": `{"limit":50,"offset":-1}`,
	}
	for url, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", url, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		if got := string(buf[:n]); got != want {
			t.Errorf("%s = %s, want %s", url, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if d, err := parseDate(""); err != nil || !d.IsZero() {
		t.Errorf("empty = %v, %v", d, err)
	}
	if _, err := parseDate("2024-02-30"); err == nil {
		t.Error("impossible date should fail")
	}
	d, err := parseDate("2024-03-14")
	if err != nil || d.Day() != 14 {
		t.Errorf("parseDate = %v, %v", d, err)
	}
}
