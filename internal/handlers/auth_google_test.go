package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/logger"
	"github.com/caconnect/caconnect_be/internal/models"
)

const testFrontend = "http://localhost:3000"

func newGoogleHandler(t *testing.T) (*GoogleOAuthHandler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}))

	log, err := logger.New("dev")
	require.NoError(t, err)

	return &GoogleOAuthHandler{
		DB:              db,
		Log:             log,
		JWTSecret:       testSecret,
		Expires:         60,
		FrontendBaseURL: testFrontend,
	}, db
}

func callbackRedirect(t *testing.T, h *GoogleOAuthHandler, query string) string {
	t.Helper()

	app := fiber.New()
	app.Get("/api/auth/google/callback", h.GoogleCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback"+query, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	return resp.Header.Get("Location")
}

func TestGoogleCallbackErrorMapping(t *testing.T) {
	h, _ := newGoogleHandler(t)

	// a declined consent screen lands on the sign-in page as a notice,
	// not an error
	loc := callbackRedirect(t, h, "?error=access_denied")
	require.Equal(t, testFrontend+"/auth?message=cancelled", loc)

	loc = callbackRedirect(t, h, "?error=server_error")
	require.Equal(t, testFrontend+"/auth?error=server_error", loc)

	// no code or state means the flow never completed
	loc = callbackRedirect(t, h, "")
	require.Equal(t, testFrontend+"/auth?error=callback_error", loc)

	// a state mismatch is rejected before any token exchange
	loc = callbackRedirect(t, h, "?code=abc&state=forged")
	require.Equal(t, testFrontend+"/auth?error=invalid_state", loc)
}

func TestPostLoginPathRouting(t *testing.T) {
	h, db := newGoogleHandler(t)

	noRole := &models.User{Name: "A", Email: "a@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(noRole).Error)
	require.Equal(t, "/role-selection", h.postLoginPath(noRole))

	customer := &models.User{Name: "B", Email: "b@example.com", Password: "x", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(customer).Error)
	require.Equal(t, "/dashboard", h.postLoginPath(customer))

	// accountant without a profile starts at the first wizard step
	fresh := &models.User{Name: "C", Email: "c@example.com", Password: "x", Role: models.RoleAccountant, IsActive: true}
	require.NoError(t, db.Create(fresh).Error)
	require.Equal(t, "/profile?step=personal_info", h.postLoginPath(fresh))

	// accountant with personal info done resumes at verification
	partial := &models.User{Name: "D", Email: "d@example.com", Password: "x", Role: models.RoleAccountant, IsActive: true}
	require.NoError(t, db.Create(partial).Error)
	require.NoError(t, db.Create(&models.Profile{
		UserID:            partial.ID,
		Username:          "ca_d",
		FirstName:         "D",
		LastName:          "Mehta",
		StateID:           1,
		DistrictID:        10,
		LanguageIDs:       toJSON([]int{1}),
		SpecializationIDs: toJSON([]int{2}),
		Phone:             "+91 98765 43210",
	}).Error)
	require.Equal(t, "/profile?step=verification", h.postLoginPath(partial))

	// fully complete accountant goes straight to the dashboard
	years := 5
	done := &models.User{Name: "E", Email: "e@example.com", Password: "x", Role: models.RoleAccountant, IsActive: true}
	require.NoError(t, db.Create(done).Error)
	require.NoError(t, db.Create(&models.Profile{
		UserID:            done.ID,
		Username:          "ca_e",
		FirstName:         "E",
		LastName:          "Mehta",
		StateID:           1,
		DistrictID:        11,
		LanguageIDs:       toJSON([]int{1}),
		SpecializationIDs: toJSON([]int{2}),
		Phone:             "+91 98765 43210",
		MembershipNumber:  "CA222222",
		YearsOfExperience: &years,
		CAQualification:   toJSON(models.CAQualification{InstituteName: "ICAI", CompletionYear: 2015}),
	}).Error)
	require.Equal(t, "/dashboard", h.postLoginPath(done))
}
