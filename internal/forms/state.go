package forms

import (
	"errors"
	"fmt"
	"time"

	"bambite_gateway/internal/apierror"
)

type Phase string

const (
	PhaseEditing     Phase = "editing"
	PhaseValidating  Phase = "validating"
	PhaseSubmitting  Phase = "submitting"
	PhaseSuccess     Phase = "success"
	PhaseError       Phase = "error"
	PhaseRateLimited Phase = "rate-limited"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrCoolingDown        = errors.New("submissions are disabled until the cooldown elapses")
	ErrInvalidForm        = errors.New("form has invalid fields")
	ErrUnknownField       = errors.New("unknown form field")
)

// SuccessNoticeDuration is how long the contact success notice stays visible.
const SuccessNoticeDuration = 5 * time.Second

// SubmissionRecorder receives one outcome per finished submission.
type SubmissionRecorder interface {
	RecordFormSubmission(form, outcome string)
}

// Status is the part of a form's state shared by every form.
type Status struct {
	Phase         Phase             `json:"phase"`
	Errors        map[string]string `json:"errors,omitempty"`
	ErrorKind     apierror.Kind     `json:"errorKind,omitempty"`
	Banner        string            `json:"banner,omitempty"`
	RetryAfter    int               `json:"retryAfter,omitempty"`
	CooldownUntil *time.Time        `json:"cooldownUntil,omitempty"`
	NoticeUntil   *time.Time        `json:"noticeUntil,omitempty"`
	ShowNotice    bool              `json:"showNotice"`
	Redirect      string            `json:"redirect,omitempty"`
	CanSubmit     bool              `json:"canSubmit"`
}

type Option func(*options)

type options struct {
	now      func() time.Time
	recorder SubmissionRecorder
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithRecorder(r SubmissionRecorder) Option {
	return func(o *options) { o.recorder = r }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// machine holds the phase bookkeeping common to both forms. Callers hold the
// owning form's mutex.
type machine struct {
	form          string
	phase         Phase
	errors        map[string]string
	lastErr       error
	banner        string
	retryAfter    int
	cooldownUntil time.Time
	noticeUntil   time.Time
	redirect      string
	opts          options
}

func newMachine(form string, opts []Option) machine {
	return machine{form: form, phase: PhaseEditing, opts: buildOptions(opts)}
}

// edited clears the field's error. A server error banner goes with the first
// edit; a rate-limit banner stays until the cooldown is over.
func (m *machine) edited(field string) {
	if m.phase == PhaseSubmitting {
		delete(m.errors, field)
		return
	}
	if m.phase == PhaseError || (m.lastErr != nil && !m.opts.now().Before(m.cooldownUntil)) {
		m.lastErr = nil
		m.banner = ""
		m.retryAfter = 0
	}
	m.phase = PhaseEditing
	delete(m.errors, field)
}

func (m *machine) begin() error {
	if m.phase == PhaseSubmitting {
		return ErrSubmissionInFlight
	}
	if m.opts.now().Before(m.cooldownUntil) {
		return ErrCoolingDown
	}
	m.phase = PhaseValidating
	m.errors = nil
	m.lastErr = nil
	m.banner = ""
	m.retryAfter = 0
	m.redirect = ""
	return nil
}

func (m *machine) invalid(errs map[string]string) {
	m.errors = errs
	m.phase = PhaseEditing
	m.record("invalid")
}

func (m *machine) succeeded() {
	m.phase = PhaseSuccess
	m.record("success")
}

func (m *machine) failed(err error, rateLimitSubject string) {
	m.lastErr = err
	if retry, ok := apierror.RetryAfter(err); ok {
		m.phase = PhaseRateLimited
		m.retryAfter = retry
		m.cooldownUntil = m.opts.now().Add(time.Duration(retry) * time.Minute)
		m.banner = RateLimitBanner(rateLimitSubject, retry)
		m.record(string(apierror.KindRateLimited))
		return
	}
	m.phase = PhaseError
	m.banner = Banner(err)
	m.record(string(apierror.KindOf(err)))
}

func (m *machine) reset() {
	m.phase = PhaseEditing
	m.errors = nil
	m.lastErr = nil
	m.banner = ""
	m.retryAfter = 0
	m.noticeUntil = time.Time{}
	m.redirect = ""
}

func (m *machine) status() Status {
	now := m.opts.now()
	st := Status{
		Phase:      m.phase,
		Banner:     m.banner,
		RetryAfter: m.retryAfter,
		Redirect:   m.redirect,
		CanSubmit:  m.phase != PhaseSubmitting && !now.Before(m.cooldownUntil),
	}
	if len(m.errors) > 0 {
		st.Errors = make(map[string]string, len(m.errors))
		for k, v := range m.errors {
			st.Errors[k] = v
		}
	}
	if m.lastErr != nil {
		st.ErrorKind = apierror.KindOf(m.lastErr)
	}
	if now.Before(m.cooldownUntil) {
		until := m.cooldownUntil
		st.CooldownUntil = &until
	}
	if !m.noticeUntil.IsZero() {
		until := m.noticeUntil
		st.NoticeUntil = &until
		st.ShowNotice = now.Before(until)
	}
	return st
}

func (m *machine) record(outcome string) {
	if m.opts.recorder != nil {
		m.opts.recorder.RecordFormSubmission(m.form, outcome)
	}
}

// Banner is the text shown above a form for a failed submission.
func Banner(err error) string {
	switch k := apierror.KindOf(err); k {
	case apierror.KindPayloadTooLarge, apierror.KindUnsupportedMedia,
		apierror.KindTimeout, apierror.KindNetwork:
		return apierror.DefaultMessage(k)
	default:
		return apierror.Message(err)
	}
}

// RateLimitBanner renders "Too many <subject>. Please try again in N minutes."
func RateLimitBanner(subject string, minutes int) string {
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Too many %s. Please try again in %d %s.", subject, minutes, unit)
}

type listeners[S any] struct {
	next int
	fns  map[int]func(S)
}

func (l *listeners[S]) add(fn func(S)) int {
	if l.fns == nil {
		l.fns = make(map[int]func(S))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return id
}

func (l *listeners[S]) remove(id int) {
	delete(l.fns, id)
}

func (l *listeners[S]) snapshot() []func(S) {
	out := make([]func(S), 0, len(l.fns))
	for _, fn := range l.fns {
		out = append(out, fn)
	}
	return out
}

func notify[S any](fns []func(S), st S) {
	for _, fn := range fns {
		fn(st)
	}
}
