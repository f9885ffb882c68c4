package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"immerseforge-site/pkg/clients/formspree"
	"immerseforge-site/pkg/clients/notion"
	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/storage"
	"immerseforge-site/pkg/utils"
)

// FormTalent labels talent application submissions in metrics and the ledger.
const FormTalent = "talent"

// ApplicationService defines the interface for handling talent applications
type ApplicationService interface {
	SubmitApplication(ctx context.Context, app models.TalentApplication, files models.ApplicationFiles) (*models.SubmissionResult, error)
}

// Ledger records relay outcomes. *storage.Store satisfies it.
type Ledger interface {
	Record(ctx context.Context, sub storage.Submission) error
}

// Recorder receives submission outcomes and upload sizes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveSubmission(form, outcome string)
	ObserveUpload(bytes int)
}

// ApplicationDeps wires the application service. Notion, Formspree, Ledger and
// Recorder may be nil; the matching step is then skipped.
type ApplicationDeps struct {
	Notion          notion.Client
	Formspree       formspree.Client
	FormspreeFormID string
	Ledger          Ledger
	Recorder        Recorder
	Logger          logger.Logger
	Now             func() time.Time
}

type applicationServiceImpl struct {
	deps ApplicationDeps
}

// NewApplicationService creates a new application service
func NewApplicationService(deps ApplicationDeps) ApplicationService {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &applicationServiceImpl{deps: deps}
}

// SubmitApplication relays an application to Notion (and Formspree when
// configured). Relay failures are logged and recorded but never returned:
// the applicant is told the submission went through regardless.
func (s *applicationServiceImpl) SubmitApplication(ctx context.Context, app models.TalentApplication, files models.ApplicationFiles) (*models.SubmissionResult, error) {
	result := &models.SubmissionResult{
		ID:          uuid.NewString(),
		SubmittedAt: s.deps.Now().UTC(),
	}
	log := logger.FromContext(ctx, s.deps.Logger).With(
		logger.String("submission_id", result.ID),
		logger.String("email_hash", utils.HashEmail(app.Email)),
		logger.String("position", app.Position),
	)
	log.Info("Processing talent application",
		logger.Bool("has_headshot", files.Headshot != nil),
		logger.Bool("has_resume", files.Resume != nil),
	)

	for _, f := range []*models.UploadedFile{files.Headshot, files.Resume} {
		if f != nil && s.deps.Recorder != nil {
			s.deps.Recorder.ObserveUpload(f.Size())
		}
	}

	var relayErr error
	if s.deps.Notion == nil {
		result.Status = models.StatusNotConfigured
		log.Info("Notion not configured, application logged only",
			logger.String("city", app.City),
			logger.Strings("availability", app.Availability),
			logger.Strings("skills", app.Skills),
			logger.String("experience_years", app.ExperienceYears),
		)
	} else {
		attachments := s.uploadAttachments(ctx, log, files, result)

		pageID, err := s.deps.Notion.CreateApplicationPage(ctx, app, attachments)
		if err != nil {
			relayErr = err
			result.Status = models.StatusRelayFailed
			log.Error("Failed to create Notion entry, but continuing", logger.Error(err))
		} else {
			result.Status = models.StatusRelayed
			result.NotionPageID = pageID
			log.Info("Created Notion application page", logger.String("page_id", pageID))
		}
	}

	if s.deps.Formspree != nil && s.deps.FormspreeFormID != "" {
		if err := s.deps.Formspree.Submit(ctx, s.deps.FormspreeFormID, formspree.TalentPayload(app)); err != nil {
			log.Error("Failed to relay application to Formspree", logger.Error(err))
		} else {
			log.Info("Relayed application to Formspree")
		}
	}

	if s.deps.Recorder != nil {
		s.deps.Recorder.ObserveSubmission(FormTalent, string(result.Status))
	}
	s.record(ctx, log, storage.Submission{
		ID:           result.ID,
		Kind:         FormTalent,
		EmailHash:    utils.HashEmail(app.Email),
		Position:     app.Position,
		NotionPageID: result.NotionPageID,
		Status:       result.Status,
		LastError:    errString(relayErr),
		CreatedAt:    result.SubmittedAt,
	})

	return result, nil
}

// uploadAttachments uploads the headshot and resume concurrently. A failed
// upload is logged and its attachment left out of the page.
func (s *applicationServiceImpl) uploadAttachments(ctx context.Context, log logger.Logger, files models.ApplicationFiles, result *models.SubmissionResult) notion.PageAttachments {
	var attachments notion.PageAttachments
	g, gctx := errgroup.WithContext(ctx)

	upload := func(file *models.UploadedFile, dst **notion.Attachment, id *string) {
		if file == nil {
			return
		}
		g.Go(func() error {
			uploadID, err := s.deps.Notion.UploadFile(gctx, file)
			if err != nil {
				log.Error("Failed to upload file to Notion",
					logger.String("field", file.FieldName),
					logger.Int("bytes", file.Size()),
					logger.Error(err),
				)
				return nil
			}
			*dst = &notion.Attachment{UploadID: uploadID, Name: file.Filename}
			*id = uploadID
			return nil
		})
	}
	upload(files.Headshot, &attachments.Headshot, &result.HeadshotID)
	upload(files.Resume, &attachments.Resume, &result.ResumeID)

	// uploads never return errors; failures only drop the attachment
	_ = g.Wait()
	return attachments
}

func (s *applicationServiceImpl) record(ctx context.Context, log logger.Logger, sub storage.Submission) {
	if s.deps.Ledger == nil {
		return
	}
	if err := s.deps.Ledger.Record(context.WithoutCancel(ctx), sub); err != nil {
		log.Warn("Failed to record submission", logger.Error(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
