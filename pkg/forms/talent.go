// Package forms turns parsed form submissions into validated models.
package forms

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"immerseforge-site/pkg/models"
)

// Multipart field names used by the talent application form.
const (
	FieldHeadshot = "headshot"
	FieldResume   = "resume"
)

// ParseTalentApplication builds an application and its attachments from a parsed multipart form.
func ParseTalentApplication(form *multipart.Form) (models.TalentApplication, models.ApplicationFiles, error) {
	var app models.TalentApplication
	var files models.ApplicationFiles
	if form == nil {
		return app, files, fmt.Errorf("empty form")
	}

	app.FullName = firstValue(form, "fullName")
	app.Email = firstValue(form, "email")
	app.Phone = firstValue(form, "phone")
	app.Position = firstValue(form, "position")
	app.City = firstValue(form, "city")
	app.ExperienceYears = firstValue(form, "experienceYears")
	app.PreviousBrands = firstValue(form, "previousBrands")
	app.Certifications = firstValue(form, "certifications")
	app.Instagram = firstValue(form, "instagram")
	app.PortfolioLink = firstValue(form, "portfolioLink")
	app.WhyJoin = firstValue(form, "whyJoin")

	var err error
	if app.Availability, err = listValue(form, "availability"); err != nil {
		return app, files, err
	}
	if app.Skills, err = listValue(form, "skills"); err != nil {
		return app, files, err
	}

	if files.Headshot, err = readFile(form, FieldHeadshot); err != nil {
		return app, files, err
	}
	if files.Resume, err = readFile(form, FieldResume); err != nil {
		return app, files, err
	}
	return app, files, nil
}

func firstValue(form *multipart.Form, name string) string {
	values := form.Value[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// listValue accepts a JSON array string, repeated fields, or "name[]" fields.
func listValue(form *multipart.Form, name string) ([]string, error) {
	raw := append(append([]string{}, form.Value[name]...), form.Value[name+"[]"]...)

	out := []string{}
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "[") {
			var items []string
			if err := json.Unmarshal([]byte(v), &items); err != nil {
				return nil, fmt.Errorf("field %s: invalid JSON array: %w", name, err)
			}
			for _, item := range items {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func readFile(form *multipart.Form, name string) (*models.UploadedFile, error) {
	headers := form.File[name]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &models.UploadedFile{
		FieldName:   name,
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
