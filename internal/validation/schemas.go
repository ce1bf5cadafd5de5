package validation

// Step payload schemas. Every step handler binds its body to one of
// these and runs it through Struct; no handler carries ad hoc rules of
// its own.

type PersonalInfo struct {
	Username          string `json:"username" validate:"required,min=3,max=50,username"`
	FirstName         string `json:"first_name" validate:"required,min=2"`
	MiddleName        string `json:"middle_name"`
	LastName          string `json:"last_name" validate:"required,min=2"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Bio               string `json:"bio" validate:"omitempty,max=500"`
	StateID           int    `json:"state_id" validate:"required,gte=1"`
	DistrictID        int    `json:"district_id" validate:"required,gte=1"`
	LanguageIDs       []int  `json:"language_ids" validate:"required,min=1"`
	SpecializationIDs []int  `json:"specialization_ids" validate:"required,min=1"`
	Phone             string `json:"phone" validate:"required,min=10,phone_shape"`
	WhatsappAvailable bool   `json:"whatsapp_available"`
}

type Verification struct {
	MembershipNumber  string `json:"membership_number" validate:"required,min=6,membership_number"`
	CertificateURL    string `json:"certificate_url"`
	ProfessionalEmail string `json:"professional_email" validate:"omitempty,email"`
	ProfessionalPhone string `json:"professional_phone" validate:"required,min=10,phone_shape"`
}

type ExperienceItem struct {
	Title       string `json:"title" validate:"required,min=2"`
	CompanyName string `json:"company_name" validate:"required,min=2"`
	Location    string `json:"location"`
	IsCurrent   bool   `json:"is_current"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required_if=IsCurrent false"`
	Description string `json:"description"`
}

type Professional struct {
	CurrentFirm              string           `json:"current_firm"`
	YearsOfExperience        *int             `json:"years_of_experience" validate:"omitempty,gte=0"`
	PracticeAreas            []string         `json:"practice_areas"`
	ProfessionalAchievements string           `json:"professional_achievements" validate:"omitempty,max=1000"`
	ConsultationFee          *float64         `json:"consultation_fee" validate:"omitempty,gte=0"`
	Experiences              []ExperienceItem `json:"experiences" validate:"omitempty,dive"`
}

type CAQualificationItem struct {
	InstituteName  string `json:"institute_name" validate:"required,min=2"`
	CompletionYear int    `json:"completion_year" validate:"required,completion_year"`
	Rank           string `json:"rank"`
}

type EducationItem struct {
	InstituteName string `json:"institute_name" validate:"required,min=2"`
	Degree        string `json:"degree" validate:"required,min=2"`
	FieldOfStudy  string `json:"field_of_study"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Grade         string `json:"grade"`
	Description   string `json:"description"`
}

type Education struct {
	CAQualification         CAQualificationItem `json:"ca_qualification" validate:"required"`
	OtherQualifications     []EducationItem     `json:"other_qualifications" validate:"omitempty,dive"`
	Certifications          []string            `json:"certifications"`
	ProfessionalMemberships []string            `json:"professional_memberships"`
}
