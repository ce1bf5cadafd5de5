package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/caconnect/caconnect_be/internal/services/refdata"
)

type ReferenceHandler struct {
	Ref *refdata.Service
}

func (h *ReferenceHandler) GetLanguages(c *fiber.Ctx) error {
	items, err := h.Ref.Languages(c.Context())
	if err != nil {
		return fail500(c, "Failed to load languages")
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ReferenceHandler) GetSpecializations(c *fiber.Ctx) error {
	items, err := h.Ref.Specializations(c.Context())
	if err != nil {
		return fail500(c, "Failed to load specializations")
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ReferenceHandler) GetStates(c *fiber.Ctx) error {
	items, err := h.Ref.States(c.Context())
	if err != nil {
		return fail500(c, "Failed to load states")
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ReferenceHandler) GetDistricts(c *fiber.Ctx) error {
	stateID, err := strconv.Atoi(c.Params("stateId"))
	if err != nil || stateID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid state id",
		})
	}

	items, err := h.Ref.Districts(c.Context(), stateID)
	if err != nil {
		return fail500(c, "Failed to load districts")
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}
