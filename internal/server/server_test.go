package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"farmersmarket/internal/database"
	"farmersmarket/internal/logging"
	"farmersmarket/internal/repositories"
	"farmersmarket/internal/server"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T, checks map[string]server.HealthCheck) server.Deps {
	t.Helper()
	logging.Silence()
	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)
	return server.Deps{
		Auth:     services.NewAuthService(repos.Users, "server-test-secret", time.Hour),
		Products: services.NewProductService(repos.Products, repos.Reviews, uow, nil),
		Carts:    services.NewCartService(uow, repos.Carts),
		Orders:   services.NewOrderService(uow, repos.Orders, nil),
		Reviews:  services.NewReviewService(repos.Reviews, repos.Products, nil),
		Checks:   checks,
	}
}

func TestHealth(t *testing.T) {
	app := server.NewApp(newDeps(t, map[string]server.HealthCheck{
		"database": func(context.Context) error { return nil },
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "ok", body.Components["database"])
}

func TestHealth_Unhealthy(t *testing.T) {
	app := server.NewApp(newDeps(t, map[string]server.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	app := server.NewApp(newDeps(t, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/no/such/page", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
