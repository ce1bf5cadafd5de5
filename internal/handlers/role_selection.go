package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/models"
	"github.com/caconnect/caconnect_be/internal/utils"
)

type RoleSelectionHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type selectRoleReq struct {
	Role string `json:"role"`
}

// SelectRole records the role picked after sign-up and reissues the
// session cookie so the role claim matches immediately.
func (h *RoleSelectionHandler) SelectRole(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req selectRoleReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	role := models.Role(req.Role)
	if !models.ValidRole(role) || role == models.RoleAdmin {
		return fail200(c, "Please choose a valid role")
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if u.Role != "" && u.Role != role {
		return fail200(c, "Role has already been chosen for this account")
	}

	u.Role = role
	if err := h.DB.Save(&u).Error; err != nil {
		return fail500(c, "Failed to save role")
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail500(c, "Failed to refresh session")
	}
	setSessionCookie(c, token, h.Expires)

	next := "/dashboard"
	if role == models.RoleAccountant {
		next = "/profile?step=" + string(models.SectionPersonalInfo)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Role saved",
		"data": fiber.Map{
			"user": userPayload(&u),
			"next": next,
		},
	})
}
