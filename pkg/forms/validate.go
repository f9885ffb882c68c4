package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"immerseforge-site/pkg/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError is a user-facing rejection of a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// registration only fails on an empty tag or nil func
		_ = validate.RegisterValidation("emailformat", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
	})
	return validate
}

// IsValidEmail reports whether s looks like an address with a local part, a domain and a dot.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateTalentApplication checks required fields first, then the email format, then the headshot.
func ValidateTalentApplication(app models.TalentApplication, files models.ApplicationFiles) error {
	if err := validateStruct(app); err != nil {
		return err
	}
	if files.Headshot == nil {
		return &ValidationError{Field: FieldHeadshot, Message: "Headshot is required"}
	}
	return nil
}

// ValidateContact checks a contact page inquiry.
func ValidateContact(msg models.ContactMessage) error {
	return validateStruct(msg)
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Field: fe.Field(), Message: "Missing required field: " + fe.Field()}
		}
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "emailformat" {
			return &ValidationError{Field: fe.Field(), Message: "Invalid email format"}
		}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: "Invalid value for field: " + fe.Field()}
}
