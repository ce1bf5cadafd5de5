package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPersonalInfo() PersonalInfo {
	return PersonalInfo{
		Username:          "ca_jane",
		FirstName:         "Jane",
		LastName:          "Mehta",
		StateID:           5,
		DistrictID:        12,
		LanguageIDs:       []int{1},
		SpecializationIDs: []int{2, 3},
		Phone:             "+91 98765 43210",
	}
}

func TestPersonalInfoValid(t *testing.T) {
	assert.Nil(t, Struct(validPersonalInfo()))
}

func TestPersonalInfoUsernameShape(t *testing.T) {
	p := validPersonalInfo()
	p.Username = "ca jane!"
	errs := Struct(p)
	require.NotNil(t, errs)
	assert.Contains(t, errs["username"][0], "letters, numbers, hyphens and underscores")

	p.Username = "ab"
	errs = Struct(p)
	require.NotNil(t, errs)
	assert.Contains(t, errs["username"][0], "at least 3")
}

func TestPersonalInfoRequiredSelections(t *testing.T) {
	p := validPersonalInfo()
	p.DistrictID = 0
	errs := Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["district_id"])

	p = validPersonalInfo()
	p.LanguageIDs = nil
	errs = Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["language_ids"])

	p = validPersonalInfo()
	p.SpecializationIDs = []int{}
	errs = Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["specialization_ids"])
}

func TestPersonalInfoBioLimit(t *testing.T) {
	p := validPersonalInfo()
	p.Bio = string(make([]byte, 501))
	errs := Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["bio"])
}

func TestVerificationMembershipNumber(t *testing.T) {
	v := Verification{
		MembershipNumber:  "ICAI123456",
		ProfessionalPhone: "9876543210",
	}
	assert.Nil(t, Struct(v))

	v.MembershipNumber = "icai123456"
	errs := Struct(v)
	require.NotNil(t, errs)
	assert.Contains(t, errs["membership_number"][0], "uppercase")

	v.MembershipNumber = "AB12"
	errs = Struct(v)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["membership_number"])
}

func TestExperienceEndDateRefinement(t *testing.T) {
	exp := ExperienceItem{
		Title:       "Senior Auditor",
		CompanyName: "Mehta & Co",
		IsCurrent:   false,
		StartDate:   "2019-04",
	}
	p := Professional{Experiences: []ExperienceItem{exp}}
	errs := Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["experiences[0].end_date"])

	// current positions pass without an end date
	p.Experiences[0].IsCurrent = true
	assert.Nil(t, Struct(p))

	// past positions pass once the end date is supplied
	p.Experiences[0].IsCurrent = false
	p.Experiences[0].EndDate = "2022-03"
	assert.Nil(t, Struct(p))
}

func TestProfessionalNumericBounds(t *testing.T) {
	years := -1
	p := Professional{YearsOfExperience: &years}
	errs := Struct(p)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["years_of_experience"])

	years = 0
	fee := 1500.0
	p = Professional{YearsOfExperience: &years, ConsultationFee: &fee}
	assert.Nil(t, Struct(p))
}

func TestEducationCompletionYearBounds(t *testing.T) {
	e := Education{
		CAQualification: CAQualificationItem{
			InstituteName:  "Institute of Chartered Accountants of India (ICAI)",
			CompletionYear: 2015,
		},
	}
	assert.Nil(t, Struct(e))

	e.CAQualification.CompletionYear = 1979
	errs := Struct(e)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["ca_qualification.completion_year"])

	e.CAQualification.CompletionYear = time.Now().Year() + 1
	errs = Struct(e)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["ca_qualification.completion_year"])
}

func TestEducationItemRequiresInstituteAndDegree(t *testing.T) {
	e := Education{
		CAQualification: CAQualificationItem{InstituteName: "ICAI", CompletionYear: 2010},
		OtherQualifications: []EducationItem{{
			InstituteName: "Delhi University",
		}},
	}
	errs := Struct(e)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs["other_qualifications[0].degree"])
}
