package forms

import (
	"regexp"
	"strings"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"
)

const (
	MaxCVBytes     = 3 * 1024 * 1024
	PDFContentType = "application/pdf"
)

const (
	msgNameRequired   = "Name is required"
	msgEmailRequired  = "Email is required"
	msgEmailInvalid   = "Please enter a valid email address"
	msgFieldRequired  = "This field is required"
	msgReasonRequired = "Please select a reason"
	msgCoverRequired  = "Cover letter is required"
	msgFileTooLarge   = "File size must be less than 3MB"
	msgFileNotPDF     = "Please upload a PDF file only"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func validateContact(f ContactFields) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = msgNameRequired
	}
	validateEmail(f.Email, errs)
	if _, ok := domain.ParseContactReason(f.Reason); !ok {
		errs[FieldReason] = msgReasonRequired
	}
	if strings.TrimSpace(f.Message) == "" {
		errs[FieldMessage] = msgFieldRequired
	}
	return errs
}

func validateApplication(f domain.ApplicationFields) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = msgNameRequired
	}
	validateEmail(f.Email, errs)
	if strings.TrimSpace(f.Interest) == "" {
		errs[FieldInterest] = msgFieldRequired
	}
	if strings.TrimSpace(f.Pressure) == "" {
		errs[FieldPressure] = msgFieldRequired
	}
	if strings.TrimSpace(f.CoverLetter) == "" {
		errs[FieldCoverLetter] = msgCoverRequired
	}
	return errs
}

func validateEmail(email string, errs map[string]string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs[FieldEmail] = msgEmailRequired
	case !ValidEmail(email):
		errs[FieldEmail] = msgEmailInvalid
	}
}

// ValidateAttachment applies the selection-time CV rules: at most 3 MiB and
// declared as application/pdf.
func ValidateAttachment(a domain.Attachment) error {
	if a.Size > MaxCVBytes {
		return apierror.New(apierror.KindPayloadTooLarge, msgFileTooLarge)
	}
	if a.ContentType != PDFContentType {
		return apierror.New(apierror.KindUnsupportedMedia, msgFileNotPDF)
	}
	return nil
}
