package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/logger"
	"github.com/caconnect/caconnect_be/internal/models"
	"github.com/caconnect/caconnect_be/internal/services/wizard"
	"github.com/caconnect/caconnect_be/internal/utils"
)

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	Log             *logger.Logger
	JWTSecret       string
	Expires         int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)

	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// authEntryRedirect sends the user back to the sign-in screen. Known
// provider error codes degrade to a friendly query parameter the auth
// page turns into a banner.
func (h *GoogleOAuthHandler) authEntryRedirect(c *fiber.Ctx, errCode string) error {
	target := h.FrontendBaseURL + "/auth"
	switch errCode {
	case "":
	case "access_denied", "cancelled":
		target += "?message=cancelled"
	default:
		target += "?error=" + url.QueryEscape(errCode)
	}
	return c.Redirect(target, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	if errCode := c.Query("error"); errCode != "" {
		h.Log.Warn("oauth provider returned error", "code", errCode, "description", c.Query("error_description"))
		return h.authEntryRedirect(c, errCode)
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return h.authEntryRedirect(c, "callback_error")
	}

	stCookie := c.Cookies("oauth_state")
	if stCookie == "" || stCookie != state {
		return h.authEntryRedirect(c, "invalid_state")
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", "error", err)
		return h.authEntryRedirect(c, "callback_error")
	}

	client := h.oauthCfg().Client(c.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		h.Log.Error("google userinfo fetch failed", "error", err)
		return h.authEntryRedirect(c, "callback_error")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return h.authEntryRedirect(c, "callback_error")
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	name := strings.TrimSpace(gu.Name)
	if email == "" {
		return h.authEntryRedirect(c, "callback_error")
	}

	// upsert user by email
	var u models.User
	err = h.DB.Where("email = ?", email).First(&u).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		h.Log.Error("user lookup failed", "error", err)
		return h.authEntryRedirect(c, "callback_error")
	}

	if err == gorm.ErrRecordNotFound {
		// password column is not nullable; OAuth accounts get a random
		// one that is never used for the email flow
		hashed, _ := utils.HashPassword(randomState(24))

		u = models.User{
			Name:     name,
			Email:    email,
			Password: hashed,
			IsActive: true,
		}
		if err := h.DB.Create(&u).Error; err != nil {
			h.Log.Error("user create via google failed", "error", err)
			return h.authEntryRedirect(c, "callback_error")
		}
	} else if name != "" && u.Name != name {
		u.Name = name
		_ = h.DB.Save(&u).Error
	}

	if !u.IsActive {
		target := h.FrontendBaseURL + "/auth?error=" + url.QueryEscape("account_inactive")
		return c.Redirect(target, http.StatusTemporaryRedirect)
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return h.authEntryRedirect(c, "callback_error")
	}

	setSessionCookie(c, jwtToken, h.Expires)

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, Secure: false, SameSite: "Lax"})

	return c.Redirect(h.FrontendBaseURL+h.postLoginPath(&u), http.StatusTemporaryRedirect)
}

// postLoginPath decides where the callback lands: the role gate when no
// role is chosen yet, the wizard while an accountant profile is still
// incomplete, the dashboard otherwise.
func (h *GoogleOAuthHandler) postLoginPath(u *models.User) string {
	if u.Role == "" {
		return "/role-selection"
	}

	if u.Role == models.RoleAccountant {
		var p models.Profile
		err := h.DB.Where("user_id = ?", u.ID).First(&p).Error

		var profile *models.Profile
		if err == nil {
			profile = &p
		}

		completed := wizard.Completed(profile)
		if next, ok := wizard.NextIncomplete(completed); ok {
			return "/profile?step=" + string(next)
		}
	}

	return "/dashboard"
}
