package handlers

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/logger"
	"github.com/caconnect/caconnect_be/internal/models"
	"github.com/caconnect/caconnect_be/internal/services/availability"
	"github.com/caconnect/caconnect_be/internal/services/uploads"
	"github.com/caconnect/caconnect_be/internal/services/wizard"
	"github.com/caconnect/caconnect_be/internal/validation"
)

type ProfileWizardHandler struct {
	DB           *gorm.DB
	Availability *availability.Service
	Uploads      *uploads.Service
	Log          *logger.Logger
}

// fail200 answers with a non-success body on a 200 so the wizard forms
// can render the message inline instead of tripping a fetch error.
func fail200(c *fiber.Ctx, msg string, extra ...fiber.Map) error {
	payload := fiber.Map{
		"success": false,
		"message": msg,
	}
	if len(extra) > 0 {
		for k, v := range extra[0] {
			payload[k] = v
		}
	}
	return c.Status(fiber.StatusOK).JSON(payload)
}

func fail500(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userId").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint")
}

func toJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// findOrCreateProfile loads the caller's accountant profile inside the
// transaction, creating an empty row on first touch so every step
// handler can assume it exists.
func findOrCreateProfile(tx *gorm.DB, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := tx.Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	p = models.Profile{
		UserID:            userID,
		Role:              models.RoleAccountant,
		Country:           "India",
		LanguageIDs:       datatypes.JSON("[]"),
		SpecializationIDs: datatypes.JSON("[]"),
		PracticeAreas:     datatypes.JSON("[]"),
		Experiences:       datatypes.JSON("[]"),
		IsActive:          true,
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// stampCompletion records the step just saved and recomputes the
// percentage from what the profile now actually contains, so the number
// never depends on the order steps were filled in.
func stampCompletion(p *models.Profile, section models.ProfileSection) {
	now := time.Now()
	p.LastCompletedSection = section
	p.CompletionUpdatedAt = &now
	p.ProfileCompletionPercentage = wizard.Percentage(wizard.Completed(p))
}

// Get returns the wizard state: the stored profile, which steps are
// satisfied, and the step the requested deep link actually resolves to.
func (h *ProfileWizardHandler) Get(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var profile *models.Profile
	var p models.Profile
	if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err == nil {
		profile = &p
	} else if err != gorm.ErrRecordNotFound {
		return fail500(c, "Failed to load profile")
	}

	completed := wizard.Completed(profile)

	requested := models.SectionPersonalInfo
	if raw := c.Query("step"); raw != "" {
		if step, ok := wizard.Parse(raw); ok {
			requested = step
		}
	}
	active := wizard.Resolve(requested, completed)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile":               profile,
			"steps":                 wizard.Steps,
			"completed_steps":       completed.Sections(),
			"active_step":           active,
			"completion_percentage": wizard.Percentage(completed),
		},
	})
}

type availabilityQuery struct {
	Username   string `query:"username" json:"username" validate:"required,min=3,max=50,username"`
	StateID    int    `query:"state_id" json:"state_id" validate:"required,gte=1"`
	DistrictID int    `query:"district_id" json:"district_id" validate:"required,gte=1"`
}

// CheckUsername answers the live availability probe the username field
// fires while typing. The save handler re-checks inside its
// transaction; this endpoint is advisory.
func (h *ProfileWizardHandler) CheckUsername(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var q availabilityQuery
	if err := c.QueryParser(&q); err != nil {
		return fail200(c, "Invalid query")
	}
	q.Username = strings.ToLower(strings.TrimSpace(q.Username))

	if errs := validation.Struct(q); errs != nil {
		return validationFail(c, errs)
	}

	res, err := h.Availability.Check(c.Context(), q.Username, q.StateID, q.DistrictID, &userID)
	if err != nil {
		return fail500(c, "Failed to check username")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}

func (h *ProfileWizardHandler) SavePersonalInfo(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req validation.PersonalInfo
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.MiddleName = strings.TrimSpace(req.MiddleName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	if errs := validation.Struct(req); errs != nil {
		return validationFail(c, errs)
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return fail500(c, "Failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	p, err := findOrCreateProfile(tx, userID)
	if err != nil {
		tx.Rollback()
		return fail500(c, "Failed to load profile")
	}

	// authoritative re-check inside the transaction; the typing-time
	// probe may be stale by the time the form submits
	res, err := availability.NewService(tx).Check(c.Context(), req.Username, req.StateID, req.DistrictID, &userID)
	if err != nil {
		tx.Rollback()
		return fail500(c, "Failed to check username")
	}
	if !res.IsAvailable {
		tx.Rollback()
		errs := validation.FieldErrors{}
		errs.Add("username", "This username is already taken in the selected location")
		return fail200(c, "Validation error", fiber.Map{
			"errors":    errs,
			"suggested": res.Suggested,
		})
	}

	p.Username = req.Username
	p.FirstName = req.FirstName
	p.MiddleName = req.MiddleName
	p.LastName = req.LastName
	p.Bio = req.Bio
	p.StateID = req.StateID
	p.DistrictID = req.DistrictID
	p.LanguageIDs = toJSON(req.LanguageIDs)
	p.SpecializationIDs = toJSON(req.SpecializationIDs)
	p.Phone = req.Phone
	p.WhatsappAvailable = req.WhatsappAvailable
	if req.ProfilePictureURL != "" {
		p.ProfilePictureURL = req.ProfilePictureURL
	}

	stampCompletion(p, models.SectionPersonalInfo)

	if err := tx.Save(p).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			// lost the race against a concurrent claim; the composite
			// index on (username, state, district) is the backstop
			errs := validation.FieldErrors{}
			errs.Add("username", "This username is already taken in the selected location")
			return fail200(c, "Validation error", fiber.Map{"errors": errs})
		}
		h.Log.Error("personal info save failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to save profile")
	}

	if err := tx.Commit().Error; err != nil {
		return fail500(c, "Failed to save profile")
	}

	return h.stepSaved(c, p, "Personal information saved")
}

func (h *ProfileWizardHandler) SaveVerification(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req validation.Verification
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	req.MembershipNumber = strings.ToUpper(strings.TrimSpace(req.MembershipNumber))
	req.ProfessionalEmail = strings.ToLower(strings.TrimSpace(req.ProfessionalEmail))
	req.ProfessionalPhone = strings.TrimSpace(req.ProfessionalPhone)

	if errs := validation.Struct(req); errs != nil {
		return validationFail(c, errs)
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return fail500(c, "Failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	p, err := findOrCreateProfile(tx, userID)
	if err != nil {
		tx.Rollback()
		return fail500(c, "Failed to load profile")
	}

	if req.CertificateURL == "" && p.MembershipCertificateURL == "" {
		tx.Rollback()
		return fail200(c, "Please upload your CA membership certificate")
	}

	p.MembershipNumber = req.MembershipNumber
	if req.CertificateURL != "" {
		p.MembershipCertificateURL = req.CertificateURL
	}
	p.ProfessionalEmail = req.ProfessionalEmail
	p.ProfessionalPhone = req.ProfessionalPhone

	stampCompletion(p, models.SectionVerification)

	if err := tx.Save(p).Error; err != nil {
		tx.Rollback()
		h.Log.Error("verification save failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to save verification details")
	}

	if err := tx.Commit().Error; err != nil {
		return fail500(c, "Failed to save verification details")
	}

	return h.stepSaved(c, p, "Verification details saved")
}

func (h *ProfileWizardHandler) SaveProfessional(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req validation.Professional
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	if errs := validation.Struct(req); errs != nil {
		return validationFail(c, errs)
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return fail500(c, "Failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	p, err := findOrCreateProfile(tx, userID)
	if err != nil {
		tx.Rollback()
		return fail500(c, "Failed to load profile")
	}

	experiences := make([]models.Experience, 0, len(req.Experiences))
	for _, e := range req.Experiences {
		experiences = append(experiences, models.Experience{
			Title:       strings.TrimSpace(e.Title),
			CompanyName: strings.TrimSpace(e.CompanyName),
			Location:    strings.TrimSpace(e.Location),
			IsCurrent:   e.IsCurrent,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Description: e.Description,
		})
	}

	if req.PracticeAreas == nil {
		req.PracticeAreas = []string{}
	}

	p.CurrentFirm = strings.TrimSpace(req.CurrentFirm)
	p.YearsOfExperience = req.YearsOfExperience
	p.PracticeAreas = toJSON(req.PracticeAreas)
	p.ProfessionalAchievements = req.ProfessionalAchievements
	p.ConsultationFee = req.ConsultationFee
	p.Experiences = toJSON(experiences)

	stampCompletion(p, models.SectionProfessional)

	if err := tx.Save(p).Error; err != nil {
		tx.Rollback()
		h.Log.Error("professional save failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to save professional details")
	}

	if err := tx.Commit().Error; err != nil {
		return fail500(c, "Failed to save professional details")
	}

	return h.stepSaved(c, p, "Professional details saved")
}

func (h *ProfileWizardHandler) SaveEducation(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req validation.Education
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	if errs := validation.Struct(req); errs != nil {
		return validationFail(c, errs)
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return fail500(c, "Failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	p, err := findOrCreateProfile(tx, userID)
	if err != nil {
		tx.Rollback()
		return fail500(c, "Failed to load profile")
	}

	others := make([]models.Education, 0, len(req.OtherQualifications))
	for _, q := range req.OtherQualifications {
		others = append(others, models.Education{
			InstituteName: strings.TrimSpace(q.InstituteName),
			Degree:        strings.TrimSpace(q.Degree),
			FieldOfStudy:  q.FieldOfStudy,
			StartDate:     q.StartDate,
			EndDate:       q.EndDate,
			Grade:         q.Grade,
			Description:   q.Description,
		})
	}

	if req.Certifications == nil {
		req.Certifications = []string{}
	}
	if req.ProfessionalMemberships == nil {
		req.ProfessionalMemberships = []string{}
	}

	p.CAQualification = toJSON(models.CAQualification{
		InstituteName:  strings.TrimSpace(req.CAQualification.InstituteName),
		CompletionYear: req.CAQualification.CompletionYear,
		Rank:           req.CAQualification.Rank,
	})
	p.OtherQualifications = toJSON(others)
	p.Certifications = toJSON(req.Certifications)
	p.ProfessionalMemberships = toJSON(req.ProfessionalMemberships)

	stampCompletion(p, models.SectionEducation)

	if err := tx.Save(p).Error; err != nil {
		tx.Rollback()
		h.Log.Error("education save failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to save education details")
	}

	if err := tx.Commit().Error; err != nil {
		return fail500(c, "Failed to save education details")
	}

	return h.stepSaved(c, p, "Education details saved")
}

// stepSaved is the shared success envelope for every step save.
func (h *ProfileWizardHandler) stepSaved(c *fiber.Ctx, p *models.Profile, msg string) error {
	completed := wizard.Completed(p)

	data := fiber.Map{
		"profile":               p,
		"completed_steps":       completed.Sections(),
		"completion_percentage": p.ProfileCompletionPercentage,
	}
	if next, ok := wizard.NextIncomplete(completed); ok {
		data["next_step"] = next
	} else {
		data["next_step"] = nil
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    data,
	})
}

func (h *ProfileWizardHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return fail200(c, "No file uploaded")
	}

	if err := uploads.Validate(file, uploads.ProfilePictureRule); err != nil {
		return fail200(c, err.Error())
	}

	target, err := h.Uploads.PrepareProfilePicture(userID, file.Filename)
	if err != nil {
		return fail500(c, "Failed to prepare upload")
	}

	if err := c.SaveFile(file, target.Path); err != nil {
		h.Log.Error("avatar write failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to store file")
	}

	p, err := findOrCreateProfile(h.DB, userID)
	if err != nil {
		return fail500(c, "Failed to load profile")
	}

	p.ProfilePictureURL = target.URL
	p.ProfileCompletionPercentage = wizard.Percentage(wizard.Completed(p))
	if err := h.DB.Save(p).Error; err != nil {
		return fail500(c, "Failed to save profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile picture updated",
		"data": fiber.Map{
			"url": target.URL,
		},
	})
}

var certificateTypeRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

func (h *ProfileWizardHandler) UploadCertificate(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("certificate")
	if err != nil {
		return fail200(c, "No file uploaded")
	}

	certType := strings.ToLower(strings.TrimSpace(c.FormValue("certificate_type")))
	if certType == "" {
		certType = "membership"
	}
	if !certificateTypeRe.MatchString(certType) {
		return fail200(c, "Invalid certificate type")
	}

	if err := uploads.Validate(file, uploads.CertificateRule); err != nil {
		return fail200(c, err.Error())
	}

	target, err := h.Uploads.PrepareCertificate(userID, certType, file.Filename)
	if err != nil {
		return fail500(c, "Failed to prepare upload")
	}

	if err := c.SaveFile(file, target.Path); err != nil {
		h.Log.Error("certificate write failed", "error", err, "user_id", userID)
		return fail500(c, "Failed to store file")
	}

	if certType == "membership" {
		p, err := findOrCreateProfile(h.DB, userID)
		if err != nil {
			return fail500(c, "Failed to load profile")
		}
		p.MembershipCertificateURL = target.URL
		p.ProfileCompletionPercentage = wizard.Percentage(wizard.Completed(p))
		if err := h.DB.Save(p).Error; err != nil {
			return fail500(c, "Failed to save profile")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Certificate uploaded",
		"data": fiber.Map{
			"url":              target.URL,
			"certificate_type": certType,
		},
	})
}

func (h *ProfileWizardHandler) DeleteAvatar(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	if err := h.Uploads.RemoveProfilePicture(userID); err != nil {
		return fail500(c, "Failed to remove file")
	}

	var p models.Profile
	if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err == nil {
		p.ProfilePictureURL = ""
		p.ProfileCompletionPercentage = wizard.Percentage(wizard.Completed(&p))
		if err := h.DB.Save(&p).Error; err != nil {
			return fail500(c, "Failed to save profile")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile picture removed",
	})
}

func (h *ProfileWizardHandler) DeleteCertificate(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	certType := strings.ToLower(strings.TrimSpace(c.Query("certificate_type")))
	if certType == "" {
		certType = "membership"
	}
	if !certificateTypeRe.MatchString(certType) {
		return fail200(c, "Invalid certificate type")
	}

	if err := h.Uploads.RemoveCertificate(userID, certType); err != nil {
		return fail500(c, "Failed to remove file")
	}

	if certType == "membership" {
		var p models.Profile
		if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err == nil {
			p.MembershipCertificateURL = ""
			p.ProfileCompletionPercentage = wizard.Percentage(wizard.Completed(&p))
			if err := h.DB.Save(&p).Error; err != nil {
				return fail500(c, "Failed to save profile")
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Certificate removed",
	})
}

// PublicProfile serves the directory page at /state/district/username.
// Lookups are case-insensitive on all three slug parts.
func (h *ProfileWizardHandler) PublicProfile(c *fiber.Ctx) error {
	stateSlug := strings.ToLower(c.Params("state"))
	districtSlug := strings.ToLower(c.Params("district"))
	username := strings.ToLower(c.Params("username"))

	var state models.State
	if err := h.DB.Where("LOWER(name) = ?", stateSlug).First(&state).Error; err != nil {
		return profileNotFound(c)
	}

	var district models.District
	if err := h.DB.Where("LOWER(name) = ? AND state_id = ?", districtSlug, state.ID).First(&district).Error; err != nil {
		return profileNotFound(c)
	}

	var p models.Profile
	err := h.DB.Where(
		"LOWER(username) = ? AND state_id = ? AND district_id = ? AND is_active = ?",
		username, state.ID, district.ID, true,
	).First(&p).Error
	if err != nil {
		return profileNotFound(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"username":            p.Username,
			"first_name":          p.FirstName,
			"middle_name":         p.MiddleName,
			"last_name":           p.LastName,
			"bio":                 p.Bio,
			"profile_picture_url": p.ProfilePictureURL,
			"state":               state.Name,
			"district":            district.Name,
			"country":             p.Country,
			"language_ids":        p.LanguageIDList(),
			"specialization_ids":  p.SpecializationIDList(),
			"verified":            p.MembershipNumber != "",
			"current_firm":        p.CurrentFirm,
			"years_of_experience": p.YearsOfExperience,
			"practice_areas":      p.PracticeAreaList(),
			"consultation_fee":    p.ConsultationFee,
			"experiences":         p.ExperienceList(),
			"ca_qualification":    p.CAQualificationValue(),
			"education":           p.EducationList(),
			"certifications":      p.CertificationList(),
			"memberships":         p.ProfessionalMembershipList(),
		},
	})
}

func profileNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": "Profile not found",
	})
}
