package models

import "time"

// TalentApplication is a brand ambassador application submitted from the talent page.
// Field order matters: required fields are reported in declaration order.
type TalentApplication struct {
	FullName        string   `json:"fullName" validate:"required"`
	Email           string   `json:"email" validate:"required,emailformat"`
	Phone           string   `json:"phone" validate:"required"`
	Position        string   `json:"position" validate:"required"`
	City            string   `json:"city" validate:"required"`
	Availability    []string `json:"availability"`
	ExperienceYears string   `json:"experienceYears"`
	PreviousBrands  string   `json:"previousBrands"`
	Skills          []string `json:"skills"`
	Certifications  string   `json:"certifications"`
	Instagram       string   `json:"instagram"`
	PortfolioLink   string   `json:"portfolioLink"`
	WhyJoin         string   `json:"whyJoin" validate:"required"`
}

// UploadedFile is a file part pulled out of a multipart submission.
type UploadedFile struct {
	FieldName   string
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f *UploadedFile) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// ApplicationFiles holds the attachments sent with an application.
type ApplicationFiles struct {
	Headshot *UploadedFile
	Resume   *UploadedFile
}

// SubmissionStatus is the relay outcome recorded for a submission.
type SubmissionStatus string

const (
	StatusRelayed       SubmissionStatus = "relayed"
	StatusRelayFailed   SubmissionStatus = "relay_failed"
	StatusNotConfigured SubmissionStatus = "not_configured"
)

// SubmissionResult is what the application service reports back to the handler.
type SubmissionResult struct {
	ID           string
	Status       SubmissionStatus
	NotionPageID string
	HeadshotID   string
	ResumeID     string
	SubmittedAt  time.Time
}

// PositionOptions lists the roles applicants can pick.
var PositionOptions = []string{
	"Brand Ambassador",
	"Event Staff",
	"Experiential Specialist",
	"Team Lead",
	"Other",
}

// AvailabilityOptions lists the availability checkboxes.
var AvailabilityOptions = []string{
	"Weekdays",
	"Weekends",
	"Evenings",
	"Flexible",
}

// SkillOptions lists the skill checkboxes.
var SkillOptions = []string{
	"Promotional Marketing",
	"Product Demonstration",
	"Public Speaking",
	"Bilingual (Spanish)",
	"Bilingual (Other)",
	"Photography",
	"Social Media",
	"Tech/VR/AR",
	"Hospitality",
	"Sales",
}
