package wizard

import (
	"strings"

	"github.com/caconnect/caconnect_be/internal/models"
)

// StepConfig describes one wizard page. Weights sum to 100; the first
// two steps are the ones a profile must clear before anything later is
// reachable.
type StepConfig struct {
	Step     models.ProfileSection `json:"step"`
	Title    string                `json:"title"`
	Required bool                  `json:"required"`
	Weight   int                   `json:"weight"`
}

var Steps = []StepConfig{
	{Step: models.SectionPersonalInfo, Title: "Personal Information", Required: true, Weight: 40},
	{Step: models.SectionVerification, Title: "CA Verification", Required: true, Weight: 30},
	{Step: models.SectionProfessional, Title: "Professional Details", Required: false, Weight: 20},
	{Step: models.SectionEducation, Title: "Education & Qualifications", Required: false, Weight: 10},
}

// Set is the in-session view of which steps are satisfied.
type Set map[models.ProfileSection]bool

func (s Set) Sections() []models.ProfileSection {
	out := make([]models.ProfileSection, 0, len(s))
	for _, cfg := range Steps {
		if s[cfg.Step] {
			out = append(out, cfg.Step)
		}
	}
	return out
}

func Parse(raw string) (models.ProfileSection, bool) {
	step := models.ProfileSection(strings.ToLower(strings.TrimSpace(raw)))
	for _, cfg := range Steps {
		if cfg.Step == step {
			return step, true
		}
	}
	return "", false
}

func Title(step models.ProfileSection) string {
	for _, cfg := range Steps {
		if cfg.Step == step {
			return cfg.Title
		}
	}
	return string(step)
}

func indexOf(step models.ProfileSection) int {
	for i, cfg := range Steps {
		if cfg.Step == step {
			return i
		}
	}
	return -1
}

// Completed derives the completed-step set from which fields the stored
// profile already has. A nil profile completes nothing.
func Completed(p *models.Profile) Set {
	s := Set{}
	if p == nil {
		return s
	}
	if personalInfoComplete(p) {
		s[models.SectionPersonalInfo] = true
	}
	if verificationComplete(p) {
		s[models.SectionVerification] = true
	}
	if professionalComplete(p) {
		s[models.SectionProfessional] = true
	}
	if educationComplete(p) {
		s[models.SectionEducation] = true
	}
	return s
}

func personalInfoComplete(p *models.Profile) bool {
	return p.FirstName != "" &&
		p.LastName != "" &&
		p.Username != "" &&
		p.StateID > 0 &&
		p.DistrictID > 0 &&
		len(p.LanguageIDList()) > 0 &&
		len(p.SpecializationIDList()) > 0 &&
		p.Phone != ""
}

func verificationComplete(p *models.Profile) bool {
	return p.MembershipNumber != ""
}

func professionalComplete(p *models.Profile) bool {
	return p.YearsOfExperience != nil ||
		p.CurrentFirm != "" ||
		len(p.PracticeAreaList()) > 0 ||
		len(p.ExperienceList()) > 0
}

func educationComplete(p *models.Profile) bool {
	q := p.CAQualificationValue()
	return q != nil && q.InstituteName != "" && q.CompletionYear > 0
}

// CanNavigate reports whether target is reachable: it is already
// completed, or every required step before it is.
func CanNavigate(target models.ProfileSection, completed Set) bool {
	idx := indexOf(target)
	if idx < 0 {
		return false
	}
	if completed[target] {
		return true
	}
	for i := 0; i < idx; i++ {
		if Steps[i].Required && !completed[Steps[i].Step] {
			return false
		}
	}
	return true
}

// Percentage sums the weights of completed steps, capped at 100. It
// depends only on set membership, never on completion order.
func Percentage(completed Set) int {
	total := 0
	for _, cfg := range Steps {
		if completed[cfg.Step] {
			total += cfg.Weight
		}
	}
	if total > 100 {
		total = 100
	}
	return total
}

// NextIncomplete returns the first step (in order) not yet completed.
func NextIncomplete(completed Set) (models.ProfileSection, bool) {
	for _, cfg := range Steps {
		if !completed[cfg.Step] {
			return cfg.Step, true
		}
	}
	return "", false
}

// Resolve gates a requested step: an unreachable step falls back to the
// first incomplete required step before it, so a fresh profile asking
// for a late step lands on the first page instead.
func Resolve(requested models.ProfileSection, completed Set) models.ProfileSection {
	if CanNavigate(requested, completed) {
		return requested
	}
	idx := indexOf(requested)
	for i := 0; i < idx; i++ {
		if Steps[i].Required && !completed[Steps[i].Step] {
			return Steps[i].Step
		}
	}
	return Steps[0].Step
}
