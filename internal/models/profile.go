package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProfileSection is one page of the profile-completion wizard.
type ProfileSection string

const (
	SectionPersonalInfo ProfileSection = "personal_info"
	SectionVerification ProfileSection = "verification"
	SectionProfessional ProfileSection = "professional"
	SectionEducation    ProfileSection = "education"
)

// Experience is one work-experience entry, stored inside the
// experiences JSONB list.
type Experience struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location,omitempty"`
	IsCurrent   bool   `json:"is_current"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	InstituteName string `json:"institute_name"`
	Degree        string `json:"degree"`
	FieldOfStudy  string `json:"field_of_study,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Grade         string `json:"grade,omitempty"`
	Description   string `json:"description,omitempty"`
}

type CAQualification struct {
	InstituteName  string `json:"institute_name"`
	CompletionYear int    `json:"completion_year"`
	Rank           string `json:"rank,omitempty"`
}

type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Role    Role   `gorm:"type:varchar(20);default:'accountant'" json:"role"`
	Country string `gorm:"type:varchar(80);default:'India'" json:"country"`

	// personal info
	// the unique index is partial: rows created before personal-info is
	// saved carry ('', 0, 0) and must not collide with each other
	Username          string         `gorm:"type:varchar(50);uniqueIndex:idx_profiles_username_location,where:username <> ''" json:"username"`
	FirstName         string         `gorm:"type:varchar(80)" json:"first_name"`
	MiddleName        string         `gorm:"type:varchar(80)" json:"middle_name"`
	LastName          string         `gorm:"type:varchar(80)" json:"last_name"`
	Bio               string         `gorm:"type:text" json:"bio"`
	ProfilePictureURL string         `gorm:"type:text" json:"profile_picture_url"`
	StateID           int            `gorm:"uniqueIndex:idx_profiles_username_location;index" json:"state_id"`
	DistrictID        int            `gorm:"uniqueIndex:idx_profiles_username_location" json:"district_id"`
	LanguageIDs       datatypes.JSON `gorm:"type:jsonb" json:"language_ids"`
	SpecializationIDs datatypes.JSON `gorm:"type:jsonb" json:"specialization_ids"`
	Phone             string         `gorm:"type:varchar(30)" json:"phone"`
	WhatsappAvailable bool           `gorm:"default:false" json:"whatsapp_available"`

	// verification
	MembershipNumber         string `gorm:"type:varchar(30);index" json:"membership_number"`
	MembershipCertificateURL string `gorm:"type:text" json:"membership_certificate_url"`
	ProfessionalEmail        string `gorm:"type:varchar(150)" json:"professional_email"`
	ProfessionalPhone        string `gorm:"type:varchar(30)" json:"professional_phone"`

	// professional
	CurrentFirm              string         `gorm:"type:varchar(150)" json:"current_firm"`
	YearsOfExperience        *int           `json:"years_of_experience"`
	PracticeAreas            datatypes.JSON `gorm:"type:jsonb" json:"practice_areas"`
	ProfessionalAchievements string         `gorm:"type:text" json:"professional_achievements"`
	ConsultationFee          *float64       `json:"consultation_fee"`
	Experiences              datatypes.JSON `gorm:"type:jsonb" json:"experiences"`

	// education
	CAQualification         datatypes.JSON `gorm:"type:jsonb" json:"ca_qualification"`
	OtherQualifications     datatypes.JSON `gorm:"type:jsonb" json:"other_qualifications"`
	Certifications          datatypes.JSON `gorm:"type:jsonb" json:"certifications"`
	ProfessionalMemberships datatypes.JSON `gorm:"type:jsonb" json:"professional_memberships"`

	// completion bookkeeping
	LastCompletedSection        ProfileSection `gorm:"type:varchar(30)" json:"last_completed_section"`
	ProfileCompletionPercentage int            `gorm:"default:0" json:"profile_completion_percentage"`
	CompletionUpdatedAt         *time.Time     `json:"completion_updated_at"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// decode helpers for the JSONB list fields; a nil or malformed blob
// decodes to an empty list.

func (p *Profile) LanguageIDList() []int {
	return decodeIntList(p.LanguageIDs)
}

func (p *Profile) SpecializationIDList() []int {
	return decodeIntList(p.SpecializationIDs)
}

func (p *Profile) PracticeAreaList() []string {
	return decodeStringList(p.PracticeAreas)
}

func (p *Profile) CertificationList() []string {
	return decodeStringList(p.Certifications)
}

func (p *Profile) ProfessionalMembershipList() []string {
	return decodeStringList(p.ProfessionalMemberships)
}

func (p *Profile) ExperienceList() []Experience {
	var out []Experience
	if len(p.Experiences) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.Experiences, &out); err != nil {
		return nil
	}
	return out
}

func (p *Profile) EducationList() []Education {
	var out []Education
	if len(p.OtherQualifications) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.OtherQualifications, &out); err != nil {
		return nil
	}
	return out
}

func (p *Profile) CAQualificationValue() *CAQualification {
	if len(p.CAQualification) == 0 {
		return nil
	}
	var q CAQualification
	if err := json.Unmarshal(p.CAQualification, &q); err != nil {
		return nil
	}
	return &q
}

func decodeIntList(raw datatypes.JSON) []int {
	var out []int
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeStringList(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
