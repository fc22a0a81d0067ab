//go:build integration

package routes_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/volm-robotics/volm-backend/internal/apps"
	"github.com/volm-robotics/volm-backend/internal/apps/robots"
	"github.com/volm-robotics/volm-backend/internal/config"
	"github.com/volm-robotics/volm-backend/internal/database"
	"github.com/volm-robotics/volm-backend/internal/handlers"
	"github.com/volm-robotics/volm-backend/internal/middleware"
	"github.com/volm-robotics/volm-backend/internal/routes"
	"github.com/volm-robotics/volm-backend/internal/services"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "volm_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/volm_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newServer(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		Services:       []string{config.ServiceAuth, config.ServiceRobots},
		DatabaseURL:    dsn,
		DBSchema:       "volm",
		DBMaxOpenConns: 10,
		DBMaxIdleConns: 5,
		JWTSecret:      "integration-secret",
		JWTExpiry:      time.Hour,
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	plugins := []apps.Plugin{robots.New()}
	require.NoError(t, database.MigrateShared(db, cfg.DBSchema))
	for _, p := range plugins {
		require.NoError(t, database.MigrateModels(db, p.Models()))
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(db, tokens, services.NewYandexClient(cfg.Yandex))

	app := fiber.New()
	app.Use(middleware.AllowOrigin())
	routes.Setup(app, cfg, db, tokens,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(db),
		plugins,
	)
	return app
}

func call(t *testing.T, app *fiber.App, method, target, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeader, "Bearer "+token)
	}

	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := call(t, app, "POST", "/auth/register", "", fmt.Sprintf(`{"email":%q,"birth_date":"1990-05-17"}`, email))
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["token"].(string)
}

func TestEndToEnd_RobotLifecycle(t *testing.T) {
	app := newServer(t)
	token := register(t, app, "owner@example.com")
	other := register(t, app, "other@example.com")

	status, body := call(t, app, "POST", "/auth/register", "", `{"email":"owner@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "User already exists", body["error"])

	status, body = call(t, app, "GET", "/auth/me", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "1990-05-17", body["birth_date"])

	status, first := call(t, app, "POST", "/robots/connect", token, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "VÖLM Robot #1", first["name"])

	status, second := call(t, app, "POST", "/robots/connect", token, `{"name":"Balcony","has_cleaning":false}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Balcony #2", second["name"])

	status, body = call(t, app, "POST", "/robots/connect", token, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Maximum 2 robots allowed", body["error"])

	status, body = call(t, app, "GET", "/robots", token, "")
	require.Equal(t, fiber.StatusOK, status)
	list := body["robots"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0].(map[string]interface{})["id"])

	secondPath := fmt.Sprintf("/robots/%v", second["id"])
	status, body = call(t, app, "POST", secondPath+"/control", token, `{"action":"start"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "This robot does not have cleaning capability", body["error"])

	firstPath := fmt.Sprintf("/robots/%v", first["id"])
	status, body = call(t, app, "POST", firstPath+"/control", token, `{"action":"start"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "cleaning", body["current_task"])
	assert.Equal(t, true, body["is_active"])

	status, body = call(t, app, "PUT", firstPath, token, `{"battery_level":64}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(64), body["battery_level"])
	assert.Equal(t, "cleaning", body["current_task"])

	// Foreign users cannot see or touch the robot.
	status, _ = call(t, app, "GET", firstPath, other, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = call(t, app, "DELETE", firstPath, other, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = call(t, app, "DELETE", secondPath, token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Robot deleted successfully", body["message"])

	status, _ = call(t, app, "GET", secondPath, token, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	// Archived robots stay addressable by update.
	status, _ = call(t, app, "PUT", secondPath, token, `{"status":"offline"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, third := call(t, app, "POST", "/robots/connect", token, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "VÖLM Robot #2", third["name"])
}

func TestEndToEnd_ConcurrentConnectRespectsQuota(t *testing.T) {
	app := newServer(t)
	token := register(t, app, "racer@example.com")

	const attempts = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/robots/connect", nil)
			req.Header.Set(middleware.AuthHeader, "Bearer "+token)
			resp, err := app.Test(req, 10_000)
			if err == nil && resp.StatusCode == fiber.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, created)

	status, body := call(t, app, "GET", "/robots", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["robots"].([]interface{}), 2)
}
