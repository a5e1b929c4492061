package forms

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bambite_gateway/internal/domain"

	"github.com/sirupsen/logrus"
)

const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldReason      = "reason"
	FieldMessage     = "message"
	FieldInterest    = "interest"
	FieldPressure    = "pressure"
	FieldCoverLetter = "coverLetter"
)

const contactRateLimitSubject = "contact form submissions"

type ContactSubmitter interface {
	SubmitContact(ctx context.Context, payload domain.ContactSubmission) (*domain.ContactReceipt, error)
}

// ContactFields hold the raw inputs. Reason may be a token or its label.
type ContactFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ContactState struct {
	Status
	Fields ContactFields `json:"fields"`
}

type ContactForm struct {
	mu sync.Mutex
	machine
	fields    ContactFields
	submitter ContactSubmitter
	listeners listeners[ContactState]
	log       *logrus.Logger
}

func NewContactForm(submitter ContactSubmitter, logger *logrus.Logger, opts ...Option) *ContactForm {
	return &ContactForm{
		machine:   newMachine("contact", opts),
		submitter: submitter,
		log:       logger,
	}
}

func (f *ContactForm) SetField(name, value string) error {
	f.mu.Lock()
	switch name {
	case FieldName:
		f.fields.Name = value
	case FieldEmail:
		f.fields.Email = value
	case FieldReason:
		f.fields.Reason = value
	case FieldMessage:
		f.fields.Message = value
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
func (f *ContactForm) SetFields(in ContactFields) {
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
	set(FieldReason, &f.fields.Reason, in.Reason)
	set(FieldMessage, &f.fields.Message, in.Message)
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()

	if changed {
		notify(fns, st)
	}
}

// Submit validates and posts the form. The returned error is ErrInvalidForm,
// ErrSubmissionInFlight, ErrCoolingDown or the classified backend error.
func (f *ContactForm) Submit(ctx context.Context) (ContactState, error) {
	f.mu.Lock()
	if err := f.begin(); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}

	if errs := validateContact(f.fields); len(errs) > 0 {
		f.invalid(errs)
		st, fns := f.stateLocked(), f.listeners.snapshot()
		f.mu.Unlock()
		notify(fns, st)
		return st, ErrInvalidForm
	}

	reason, _ := domain.ParseContactReason(f.fields.Reason)
	payload := domain.ContactSubmission{
		Name:    strings.TrimSpace(f.fields.Name),
		Email:   strings.TrimSpace(f.fields.Email),
		Reason:  reason,
		Message: strings.TrimSpace(f.fields.Message),
	}
	f.phase = PhaseSubmitting
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)

	_, err := f.submitter.SubmitContact(ctx, payload)

	f.mu.Lock()
	if err != nil {
		f.log.WithFields(logrus.Fields{"form": f.form, "reason": payload.Reason}).
			Warnf("ContactForm: submission failed: %v", err)
		f.failed(err, contactRateLimitSubject)
	} else {
		f.fields = ContactFields{}
		f.noticeUntil = f.opts.now().Add(SuccessNoticeDuration)
		f.succeeded()
		f.log.WithField("form", f.form).Info("ContactForm: submission accepted")
	}
	st, fns = f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)

	return st, err
}

func (f *ContactForm) State() ContactState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Subscribe registers fn for every state change and returns its remover.
func (f *ContactForm) Subscribe(fn func(ContactState)) func() {
	f.mu.Lock()
	id := f.listeners.add(fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.listeners.remove(id)
		f.mu.Unlock()
	}
}

// Reset clears the fields and any outcome. An active cooldown survives.
func (f *ContactForm) Reset() {
	f.mu.Lock()
	if f.phase == PhaseSubmitting {
		f.mu.Unlock()
		return
	}
	f.fields = ContactFields{}
	f.reset()
	st, fns := f.stateLocked(), f.listeners.snapshot()
	f.mu.Unlock()
	notify(fns, st)
}

func (f *ContactForm) stateLocked() ContactState {
	return ContactState{Status: f.status(), Fields: f.fields}
}
