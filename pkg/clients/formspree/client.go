package formspree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"immerseforge-site/pkg/models"
)

const DefaultBaseURL = "https://formspree.io/f"

// Client defines the interface for interacting with Formspree form endpoints
type Client interface {
	Submit(ctx context.Context, formID string, payload any) error
}

// APIError is a rejected submission.
type APIError struct {
	StatusCode int
	Messages   []string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("formspree: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("formspree: status %d: %s", e.StatusCode, e.Body)
}

type clientImpl struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Formspree client. A nil httpClient gets a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &clientImpl{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *clientImpl) Submit(ctx context.Context, formID string, payload any) error {
	if formID == "" {
		return fmt.Errorf("formspree: form id is required")
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+formID, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error submitting to formspree: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var response struct {
		OK     *bool `json:"ok"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	// Formspree answers JSON when asked to; anything else is judged on status alone.
	_ = json.Unmarshal(body, &response)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || (response.OK != nil && !*response.OK) {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		for _, e := range response.Errors {
			msg := e.Message
			if e.Field != "" {
				msg = e.Field + ": " + msg
			}
			apiErr.Messages = append(apiErr.Messages, msg)
		}
		return apiErr
	}
	return nil
}

// TalentPayload is the flattened application body the Formspree talent form receives.
func TalentPayload(app models.TalentApplication) map[string]string {
	return map[string]string{
		"fullName":        app.FullName,
		"email":           app.Email,
		"phone":           app.Phone,
		"position":        app.Position,
		"city":            app.City,
		"availability":    strings.Join(app.Availability, ", "),
		"experienceYears": app.ExperienceYears,
		"previousBrands":  app.PreviousBrands,
		"skills":          strings.Join(app.Skills, ", "),
		"certifications":  app.Certifications,
		"instagram":       app.Instagram,
		"portfolioLink":   app.PortfolioLink,
		"whyJoin":         app.WhyJoin,
		"_subject":        fmt.Sprintf("New BA Application: %s - %s", app.FullName, app.Position),
	}
}

// ContactPayload is the body the Formspree contact form receives.
func ContactPayload(msg models.ContactMessage) map[string]string {
	return map[string]string{
		"name":     msg.Name,
		"email":    msg.Email,
		"company":  msg.Company,
		"budget":   msg.Budget,
		"message":  msg.Message,
		"_replyto": msg.Email,
		"_subject": fmt.Sprintf("New inquiry from %s", msg.Name),
	}
}
