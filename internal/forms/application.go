package forms

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"
	"bambite_gateway/internal/mapper"

	"github.com/sirupsen/logrus"
)

const applicationRateLimitSubject = "applications submitted"

type ApplicationSubmitter interface {
	SubmitJobApplication(ctx context.Context, app domain.JobApplication) (*domain.ApplicationReceipt, error)
}

// SelectedFile describes the chosen CV without its bytes.
type SelectedFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type ApplicationState struct {
	Status
	JobID  string                   `json:"jobId"`
	Fields domain.ApplicationFields `json:"fields"`
	File   *SelectedFile            `json:"file,omitempty"`
}

type ApplicationForm struct {
	mu sync.Mutex
	machine
	jobID     string
	fields    domain.ApplicationFields
	file      *domain.Attachment
	submitter ApplicationSubmitter
	listeners listeners[ApplicationState]
	log       *logrus.Logger
}

func NewApplicationForm(jobID string, submitter ApplicationSubmitter, logger *logrus.Logger, opts ...Option) *ApplicationForm {
	return &ApplicationForm{
		machine:   newMachine("application", opts),
		jobID:     jobID,
		submitter: submitter,
		log:       logger,
	}
}

// SuccessRedirect is where the browser goes after an accepted application.
func SuccessRedirect(jobID string) string {
	id := url.PathEscape(jobID)
	return fmt.Sprintf("/career/%s/apply/success?jobId=%s", id, url.QueryEscape(jobID))
}

func (f *ApplicationForm) SetField(name, value string) error {
	f.mu.Lock()
	switch name {
	case FieldName:
		f.fields.Name = value
	case FieldEmail:
		f.fields.Email = value
	case FieldInterest:
		f.fields.Interest = value
	case FieldPressure:
		f.fields.Pressure = value
	case FieldCoverLetter:
		f.fields.CoverLetter = value
	default:
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.edited(name)
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()

	notify(fns, st)
	return nil
}

// SetFields applies every field that differs from the current value.
func (f *ApplicationForm) SetFields(in domain.ApplicationFields) {
	f.mu.Lock()
	changed := false
	set := func(name string, dst *string, v string) {
		if *dst != v {
			*dst = v
			f.edited(name)
			changed = true
		}
	}
	set(FieldName, &f.fields.Name, in.Name)
	set(FieldEmail, &f.fields.Email, in.Email)
	set(FieldInterest, &f.fields.Interest, in.Interest)
	set(FieldPressure, &f.fields.Pressure, in.Pressure)
	set(FieldCoverLetter, &f.fields.CoverLetter, in.CoverLetter)
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()

	if changed {
		notify(fns, st)
	}
}

// SelectFile validates the CV when it is picked. A rejected file leaves the
// previous selection in place and surfaces the reason as the banner.
func (f *ApplicationForm) SelectFile(a domain.Attachment) error {
	f.mu.Lock()
	if f.phase == PhaseSubmitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	err := ValidateAttachment(a)
	if err != nil {
		f.lastErr = err
		f.banner = apierror.Message(err)
		f.phase = PhaseError
		f.log.WithFields(logrus.Fields{
			"job_id":       f.jobID,
			"extension":    strings.ToLower(filepath.Ext(a.Filename)),
			"content_type": a.ContentType,
			"size":         a.Size,
		}).Warnf("ApplicationForm: rejected CV: %v", err)
	} else {
		file := a
		f.file = &file
		f.lastErr = nil
		f.banner = ""
		f.phase = PhaseEditing
	}
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()

	notify(fns, st)
	return err
}

func (f *ApplicationForm) ClearFile() {
	f.mu.Lock()
	f.file = nil
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)
}

// Submit validates and posts the application. The CV is optional.
func (f *ApplicationForm) Submit(ctx context.Context) (ApplicationState, error) {
	f.mu.Lock()
	if err := f.begin(); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}

	if errs := validateApplication(f.fields); len(errs) > 0 {
		f.invalid(errs)
		st, fns := f.stateLocked(), f.listeners.snapshot()
		f.mu.Unlock()
		notify(fns, st)
		return st, ErrInvalidForm
	}

	app := mapper.JobApplicationFromFields(f.jobID, domain.ApplicationFields{
		Name:        strings.TrimSpace(f.fields.Name),
		Email:       strings.TrimSpace(f.fields.Email),
		Interest:    strings.TrimSpace(f.fields.Interest),
		Pressure:    strings.TrimSpace(f.fields.Pressure),
		CoverLetter: strings.TrimSpace(f.fields.CoverLetter),
	}, f.file)
	f.phase = PhaseSubmitting
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)

	_, err := f.submitter.SubmitJobApplication(ctx, app)

	f.mu.Lock()
	logger := f.log.WithFields(logrus.Fields{"form": f.form, "job_id": f.jobID})
	if err != nil {
		logger.Warnf("ApplicationForm: submission failed: %v", err)
		f.failed(err, applicationRateLimitSubject)
	} else {
		f.fields = domain.ApplicationFields{}
		f.file = nil
		f.redirect = SuccessRedirect(f.jobID)
		f.succeeded()
		logger.Info("ApplicationForm: application accepted")
	}
	st, fns = f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)

	return st, err
}

func (f *ApplicationForm) State() ApplicationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *ApplicationForm) Subscribe(fn func(ApplicationState)) func() {
	f.mu.Lock()
	id := f.listeners.add(fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.listeners.remove(id)
		f.mu.Unlock()
	}
}

func (f *ApplicationForm) Reset() {
	f.mu.Lock()
	if f.phase == PhaseSubmitting {
		f.mu.Unlock()
		return
	}
	f.fields = domain.ApplicationFields{}
	f.file = nil
	f.reset()
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)
}

func (f *ApplicationForm) stateLocked() ApplicationState {
	st := ApplicationState{Status: f.status(), JobID: f.jobID, Fields: f.fields}
	if f.file != nil {
		st.File = &SelectedFile{
			Filename:    f.file.Filename,
			ContentType: f.file.ContentType,
			Size:        f.file.Size,
		}
	}
	return st
}
