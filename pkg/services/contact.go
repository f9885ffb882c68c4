package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"immerseforge-site/pkg/clients/formspree"
	"immerseforge-site/pkg/forms"
	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/storage"
	"immerseforge-site/pkg/utils"
)

// FormContact labels contact page submissions in metrics and the ledger.
const FormContact = "contact"

// ErrRelayFailed means the message could not be handed to the form processor.
var ErrRelayFailed = errors.New("contact relay failed")

// ContactService defines the interface for handling contact page inquiries
type ContactService interface {
	SubmitContact(ctx context.Context, msg models.ContactMessage) error
}

type contactServiceImpl struct {
	formspree formspree.Client
	formID    string
	ledger    Ledger
	recorder  Recorder
	logger    logger.Logger
}

// NewContactService creates a new contact service. ledger and recorder may be nil.
func NewContactService(client formspree.Client, formID string, ledger Ledger, recorder Recorder, log logger.Logger) ContactService {
	if log == nil {
		log = logger.NewNop()
	}
	return &contactServiceImpl{
		formspree: client,
		formID:    formID,
		ledger:    ledger,
		recorder:  recorder,
		logger:    log,
	}
}

// SubmitContact validates the inquiry and forwards it to Formspree. Unlike
// applications, a relay failure is returned so the page can show an error.
func (s *contactServiceImpl) SubmitContact(ctx context.Context, msg models.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Company = strings.TrimSpace(msg.Company)
	msg.Budget = strings.TrimSpace(msg.Budget)
	msg.Message = strings.TrimSpace(msg.Message)

	if err := forms.ValidateContact(msg); err != nil {
		return err
	}

	id := uuid.NewString()
	log := logger.FromContext(ctx, s.logger).With(
		logger.String("submission_id", id),
		logger.String("email_hash", utils.HashEmail(msg.Email)),
	)

	status := models.StatusRelayed
	var relayErr error
	if s.formspree == nil || s.formID == "" {
		status = models.StatusNotConfigured
		relayErr = errors.New("formspree contact form is not configured")
	} else if err := s.formspree.Submit(ctx, s.formID, formspree.ContactPayload(msg)); err != nil {
		status = models.StatusRelayFailed
		relayErr = err
	}

	if s.recorder != nil {
		s.recorder.ObserveSubmission(FormContact, string(status))
	}
	if s.ledger != nil {
		if err := s.ledger.Record(context.WithoutCancel(ctx), storage.Submission{
			ID:        id,
			Kind:      FormContact,
			EmailHash: utils.HashEmail(msg.Email),
			Status:    status,
			LastError: errString(relayErr),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			log.Warn("Failed to record submission", logger.Error(err))
		}
	}

	if relayErr != nil {
		log.Error("Failed to relay contact message", logger.Error(relayErr))
		return fmt.Errorf("%w: %v", ErrRelayFailed, relayErr)
	}
	log.Info("Relayed contact message", logger.String("company", msg.Company))
	return nil
}
