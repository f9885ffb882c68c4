package notion

import (
	"strings"
	"time"
	"unicode"

	"immerseforge-site/pkg/models"
)

// Status assigned to every new application page.
const StatusNewApplication = "New Application"

// BuildApplicationProperties maps an application onto the talent database columns.
func BuildApplicationProperties(app models.TalentApplication, attachments PageAttachments, appliedAt time.Time) map[string]any {
	props := map[string]any{
		"Full Name":    map[string]any{"title": richText(app.FullName)},
		"Email":        map[string]any{"email": app.Email},
		"Phone":        map[string]any{"phone_number": app.Phone},
		"Position":     map[string]any{"select": map[string]string{"name": app.Position}},
		"City":         map[string]any{"rich_text": richText(app.City)},
		"Status":       map[string]any{"select": map[string]string{"name": StatusNewApplication}},
		"Applied Date": map[string]any{"date": map[string]string{"start": appliedAt.UTC().Format("2006-01-02")}},
	}

	if len(app.Availability) > 0 {
		props["Availability"] = map[string]any{"multi_select": selectOptions(app.Availability)}
	}
	if app.ExperienceYears != "" {
		props["Experience Years"] = map[string]any{"number": leadingInt(app.ExperienceYears)}
	}
	if app.PreviousBrands != "" {
		props["Previous Brands"] = map[string]any{"rich_text": richText(app.PreviousBrands)}
	}
	if len(app.Skills) > 0 {
		props["Skills"] = map[string]any{"multi_select": selectOptions(app.Skills)}
	}
	if app.Certifications != "" {
		props["Certifications"] = map[string]any{"rich_text": richText(app.Certifications)}
	}
	if app.Instagram != "" {
		props["Instagram"] = map[string]any{"url": InstagramURL(app.Instagram)}
	}
	if app.PortfolioLink != "" {
		props["Portfolio"] = map[string]any{"url": app.PortfolioLink}
	}
	if app.WhyJoin != "" {
		props["Why ImmerseForge"] = map[string]any{"rich_text": richText(app.WhyJoin)}
	}
	if a := attachments.Headshot; a != nil && a.UploadID != "" {
		props["Headshot"] = map[string]any{"files": fileRefs(a)}
	}
	if a := attachments.Resume; a != nil && a.UploadID != "" {
		props["Resume"] = map[string]any{"files": fileRefs(a)}
	}

	return props
}

// InstagramURL turns a handle into a profile link; full URLs pass through.
func InstagramURL(handle string) string {
	if strings.HasPrefix(handle, "http") {
		return handle
	}
	return "https://instagram.com/" + strings.Replace(handle, "@", "", 1)
}

func richText(s string) []map[string]any {
	return []map[string]any{{"text": map[string]string{"content": truncate(s, maxRichTextLength)}}}
}

func selectOptions(values []string) []map[string]string {
	out := make([]map[string]string, 0, len(values))
	for _, v := range values {
		// Notion select option names may not contain commas.
		out = append(out, map[string]string{"name": strings.ReplaceAll(v, ",", " ")})
	}
	return out
}

func fileRefs(a *Attachment) []map[string]any {
	return []map[string]any{{
		"type":        "file_upload",
		"name":        a.Name,
		"file_upload": map[string]string{"id": a.UploadID},
	}}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// leadingInt parses the integer prefix of s, returning 0 when there is none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	sign := 1
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	n := 0
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			break
		}
		n = n*10 + int(r-'0')
	}
	return sign * n
}
