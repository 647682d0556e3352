package validation

import (
	"regexp"
	"strings"

	"docquiz/internal/domain"
	"docquiz/internal/dto"
)

const maxIDLength = 64

// identifiers are UUIDs or ULIDs in practice; anything URL-safe is accepted.
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator provides request validation functionality
type Validator struct {
	maxQuestions int
}

// NewValidator caps requested_question_count at maxQuestions.
func NewValidator(maxQuestions int) *Validator {
	return &Validator{maxQuestions: maxQuestions}
}

// ValidateGenerateRequest validates the generation request body
func (v *Validator) ValidateGenerateRequest(req *dto.GenerateRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = appendIdentifier(errors, "quiz_id", req.QuizID)
	errors = appendIdentifier(errors, "document_id", req.DocumentID)
	errors = appendIdentifier(errors, "user_id", req.UserID)

	if req.RequestedQuestionCount < 1 || req.RequestedQuestionCount > v.maxQuestions {
		errors = append(errors, domain.NewOutOfRangeError("requested_question_count", req.RequestedQuestionCount, 1, v.maxQuestions))
	}

	return errors
}

// ValidateUsageRequest validates the usage check body
func (v *Validator) ValidateUsageRequest(req *dto.UsageRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = appendIdentifier(errors, "user_id", req.UserID)

	if strings.TrimSpace(req.Type) == "" {
		errors = append(errors, domain.NewMissingFieldError("type"))
	} else if _, err := domain.ParseResourceType(req.Type); err != nil {
		errors = append(errors, domain.NewInvalidFormatError("type", req.Type))
	}

	return errors
}

func appendIdentifier(errors domain.ValidationErrors, field, value string) domain.ValidationErrors {
	switch {
	case strings.TrimSpace(value) == "":
		return append(errors, domain.NewMissingFieldError(field))
	case len(value) > maxIDLength || !identifierRe.MatchString(value):
		return append(errors, domain.NewInvalidFormatError(field, value))
	}
	return errors
}
