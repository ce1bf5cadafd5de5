package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/middleware"
	"github.com/caconnect/caconnect_be/internal/models"
	"github.com/caconnect/caconnect_be/internal/utils"
)

func newAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}))

	authH := &AuthHandler{DB: db, JWTSecret: testSecret, Expires: 60}

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)

	protected := api.Group("/", middleware.JWTFromCookie(testSecret), middleware.AttachJWTLocals())
	protected.Get("/me", authH.Me)

	return app, db
}

func TestRegisterSetsCookieAndRoleGate(t *testing.T) {
	app, db := newAuthApp(t)

	body := map[string]interface{}{
		"name":     "Jane Mehta",
		"email":    "Jane@Example.com",
		"password": "secret123",
	}

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", body, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookieSet bool
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			cookieSet = true
		}
	}
	require.True(t, cookieSet)

	out := decodeBody(t, resp)
	require.Equal(t, true, out["success"])
	data := out["data"].(map[string]interface{})
	require.Equal(t, "/role-selection", data["next"])
	user := data["user"].(map[string]interface{})
	require.Equal(t, true, user["needs_role"])

	// email is stored lowercased and the password never in the clear
	var u models.User
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&u).Error)
	require.Equal(t, "", string(u.Role))
	require.NotEqual(t, "secret123", u.Password)
	require.True(t, utils.CheckPassword(u.Password, "secret123"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := newAuthApp(t)

	body := map[string]interface{}{
		"name":     "Jane Mehta",
		"email":    "jane@example.com",
		"password": "secret123",
	}

	status, out := doJSON(t, app, http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, true, out["success"])

	status, out = doJSON(t, app, http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, out["success"])

	errs := out["errors"].(map[string]interface{})
	require.Contains(t, errs, "email")
}

func TestAuthInvalidBodyConvention(t *testing.T) {
	app, _ := newAuthApp(t)

	for _, path := range []string{"/api/auth/register", "/api/auth/login"} {
		req := rawRequest(t, http.MethodPost, path, "{not json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		out := decodeBody(t, resp)
		resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, false, out["success"], path)
	}
}

func TestLoginFlows(t *testing.T) {
	app, db := newAuthApp(t)

	register := map[string]interface{}{
		"name":     "Jane Mehta",
		"email":    "jane@example.com",
		"password": "secret123",
	}
	status, out := doJSON(t, app, http.MethodPost, "/api/auth/register", register, nil)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, true, out["success"])

	status, out = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "jane@example.com", "password": "wrong",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, out["success"])

	status, out = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "jane@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jane@example.com").Update("is_active", false).Error)

	status, out = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "jane@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, out["success"])
	require.Equal(t, "This account is inactive", out["message"])
}

func TestMeRequiresValidSession(t *testing.T) {
	app, db := newAuthApp(t)

	u := models.User{Name: "Jane", Email: "jane@example.com", Password: "x", Role: models.RoleAccountant, IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	status, out := doJSON(t, app, http.MethodGet, "/api/me", nil, sessionCookie(t, &u))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])

	data := out["data"].(map[string]interface{})
	require.Equal(t, "jane@example.com", data["email"])
	require.Equal(t, false, data["needs_role"])

	req := jsonRequest(t, http.MethodGet, "/api/me", nil, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
