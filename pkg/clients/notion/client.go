package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"immerseforge-site/pkg/models"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	// Notion rejects rich text segments longer than this.
	maxRichTextLength = 2000

	uploadStatusUploaded = "uploaded"
)

// Client defines the interface for interacting with the Notion API
type Client interface {
	UploadFile(ctx context.Context, file *models.UploadedFile) (string, error)
	CreateApplicationPage(ctx context.Context, app models.TalentApplication, attachments PageAttachments) (string, error)
}

// Attachment references a completed file upload.
type Attachment struct {
	UploadID string
	Name     string
}

// PageAttachments are the files linked from an application page. Either may be nil.
type PageAttachments struct {
	Headshot *Attachment
	Resume   *Attachment
}

// APIError is a non-2xx response from Notion.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Observer is told about every Notion call once its retries are exhausted.
type Observer func(operation string, err error)

// Option configures a client.
type Option func(*clientImpl)

func WithBaseURL(u string) Option {
	return func(c *clientImpl) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithVersion(v string) Option {
	return func(c *clientImpl) { c.version = v }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientImpl) { c.httpClient = hc }
}

// WithMaxRetries bounds how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *clientImpl) { c.maxRetries = n }
}

// WithRetryInterval sets the first backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *clientImpl) { c.retryInterval = d }
}

func WithObserver(o Observer) Option {
	return func(c *clientImpl) { c.observe = o }
}

// WithClock overrides the clock used for the applied date.
func WithClock(now func() time.Time) Option {
	return func(c *clientImpl) { c.now = now }
}

type clientImpl struct {
	apiKey        string
	databaseID    string
	baseURL       string
	version       string
	httpClient    *http.Client
	maxRetries    int
	retryInterval time.Duration
	observe       Observer
	now           func() time.Time
}

// NewClient creates a new Notion client for the talent database
func NewClient(apiKey, databaseID string, opts ...Option) Client {
	c := &clientImpl{
		apiKey:        apiKey,
		databaseID:    databaseID,
		baseURL:       DefaultBaseURL,
		version:       DefaultVersion,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		maxRetries:    3,
		retryInterval: 500 * time.Millisecond,
		observe:       func(string, error) {},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fileUpload struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url"`
	Status    string `json:"status"`
}

// UploadFile creates a file upload, sends the bytes, then confirms Notion
// marked it uploaded. It returns the file upload id.
func (c *clientImpl) UploadFile(ctx context.Context, file *models.UploadedFile) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", errors.New("notion upload: empty file")
	}

	var created fileUpload
	err := c.doJSON(ctx, "create_upload", http.MethodPost, c.baseURL+"/file_uploads", map[string]any{
		"filename":     file.Filename,
		"content_type": file.ContentType,
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("notion create_upload: response missing id")
	}

	uploadURL := created.UploadURL
	if uploadURL == "" {
		uploadURL = fmt.Sprintf("%s/file_uploads/%s/send", c.baseURL, created.ID)
	}
	body, contentType, err := encodeFilePart(file)
	if err != nil {
		return "", fmt.Errorf("notion send_upload: %w", err)
	}
	if _, err := c.do(ctx, "send_upload", http.MethodPost, uploadURL, contentType, body); err != nil {
		return "", err
	}

	var status fileUpload
	if err := c.doJSON(ctx, "complete_upload", http.MethodGet, fmt.Sprintf("%s/file_uploads/%s", c.baseURL, created.ID), nil, &status); err != nil {
		return "", err
	}
	if status.Status != uploadStatusUploaded {
		return "", fmt.Errorf("notion complete_upload: upload %s has status %q", created.ID, status.Status)
	}

	return created.ID, nil
}

// CreateApplicationPage adds the application to the talent database and returns the page id.
func (c *clientImpl) CreateApplicationPage(ctx context.Context, app models.TalentApplication, attachments PageAttachments) (string, error) {
	payload := map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": BuildApplicationProperties(app, attachments, c.now()),
	}

	var page struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, "create_page", http.MethodPost, c.baseURL+"/pages", payload, &page); err != nil {
		return "", err
	}
	return page.ID, nil
}

func encodeFilePart(file *models.UploadedFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Filename))
	h.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *clientImpl) doJSON(ctx context.Context, op, method, url string, payload, out any) error {
	var body []byte
	contentType := ""
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("notion %s: encode payload: %w", op, err)
		}
		contentType = "application/json"
	}

	respBody, err := c.do(ctx, op, method, url, contentType, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("notion %s: parse response: %w", op, err)
	}
	return nil
}

// do sends one request, retrying network errors, 429 and 5xx with exponential backoff.
func (c *clientImpl) do(ctx context.Context, op, method, url, contentType string, body []byte) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	respBody, err := backoff.Retry(ctx, func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("notion %s: create request: %w", op, err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Notion-Version", c.version)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(fmt.Errorf("notion %s: %w", op, ctx.Err()))
			}
			return nil, fmt.Errorf("notion %s: %w", op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("notion %s: read response: %w", op, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if apiErr.Temporary() {
				return nil, apiErr
			}
			return nil, backoff.Permanent(apiErr)
		}
		return data, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
		backoff.WithMaxElapsedTime(time.Minute),
	)

	c.observe(op, err)
	return respBody, err
}
