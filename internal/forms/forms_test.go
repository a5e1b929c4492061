package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	err      error
	release  chan struct{}
	entered  chan struct{}
	contacts []domain.ContactSubmission
	apps     []domain.JobApplication
}

func (s *fakeSubmitter) wait() {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
}

func (s *fakeSubmitter) SubmitContact(_ context.Context, p domain.ContactSubmission) (*domain.ContactReceipt, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, p)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ContactReceipt{Status: "success"}, nil
}

func (s *fakeSubmitter) SubmitJobApplication(_ context.Context, a domain.JobApplication) (*domain.ApplicationReceipt, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = append(s.apps, a)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ApplicationReceipt{Status: "success"}, nil
}

type fakeRecorder struct{ outcomes []string }

func (r *fakeRecorder) RecordFormSubmission(form, outcome string) {
	r.outcomes = append(r.outcomes, form+":"+outcome)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func fillContact(t *testing.T, f *ContactForm) {
	t.Helper()
	require.NoError(t, f.SetField(FieldName, "Ann"))
	require.NoError(t, f.SetField(FieldEmail, "ann@example.com"))
	require.NoError(t, f.SetField(FieldReason, "Feedback"))
	require.NoError(t, f.SetField(FieldMessage, "Great pad thai"))
}

func TestContactForm_Success(t *testing.T) {
	clk := newClock()
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	f := NewContactForm(sub, quietLogger(), WithClock(clk.Now), WithRecorder(rec))
	fillContact(t, f)

	var phases []Phase
	unsubscribe := f.Subscribe(func(s ContactState) { phases = append(phases, s.Phase) })
	defer unsubscribe()

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, ContactFields{}, st.Fields)
	assert.True(t, st.ShowNotice)
	require.NotNil(t, st.NoticeUntil)
	assert.Equal(t, clk.now.Add(5*time.Second), *st.NoticeUntil)
	assert.Equal(t, []Phase{PhaseSubmitting, PhaseSuccess}, phases)

	require.Len(t, sub.contacts, 1)
	assert.Equal(t, domain.ReasonFeedback, sub.contacts[0].Reason)
	assert.Equal(t, []string{"contact:success"}, rec.outcomes)

	clk.now = clk.now.Add(6 * time.Second)
	assert.False(t, f.State().ShowNotice)
}

func TestContactForm_RateLimited(t *testing.T) {
	clk := newClock()
	sub := &fakeSubmitter{err: apierror.NewRateLimited("Too many submissions", 10)}
	f := NewContactForm(sub, quietLogger(), WithClock(clk.Now))
	fillContact(t, f)

	st, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseRateLimited, st.Phase)
	assert.Equal(t, 10, st.RetryAfter)
	assert.Contains(t, st.Banner, "10 minutes")
	assert.Equal(t, "Too many contact form submissions. Please try again in 10 minutes.", st.Banner)
	assert.False(t, st.CanSubmit)
	assert.Equal(t, "Ann", st.Fields.Name)

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrCoolingDown)
	assert.Len(t, sub.contacts, 1)

	require.NoError(t, f.SetField(FieldMessage, "again"))
	st = f.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.False(t, st.CanSubmit)
	assert.Equal(t, apierror.KindRateLimited, st.ErrorKind)
	assert.Contains(t, st.Banner, "10 minutes")

	clk.now = clk.now.Add(10*time.Minute + time.Second)
	sub.err = nil
	assert.True(t, f.State().CanSubmit)
	st, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSuccess, st.Phase)
}

func TestContactForm_HugeRetryAfterStillBlocksSubmit(t *testing.T) {
	clk := newClock()
	sub := &fakeSubmitter{err: apierror.NewRateLimited("x", 200000000000)}
	f := NewContactForm(sub, quietLogger(), WithClock(clk.Now))
	fillContact(t, f)

	st, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseRateLimited, st.Phase)
	assert.Equal(t, apierror.MaxRetryAfterMinutes, st.RetryAfter)
	assert.False(t, st.CanSubmit)
	require.NotNil(t, st.CooldownUntil)
	assert.Equal(t, clk.now.Add(24*time.Hour), *st.CooldownUntil)

	clk.now = clk.now.Add(23 * time.Hour)
	assert.False(t, f.State().CanSubmit)
}

func TestContactForm_ValidationErrors(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	f := NewContactForm(sub, quietLogger(), WithRecorder(rec))
	require.NoError(t, f.SetField(FieldEmail, "not-an-email"))

	st, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Equal(t, map[string]string{
		FieldName:    "Name is required",
		FieldEmail:   "Please enter a valid email address",
		FieldReason:  "Please select a reason",
		FieldMessage: "This field is required",
	}, st.Errors)
	assert.Empty(t, sub.contacts)

	require.NoError(t, f.SetField(FieldName, "Ann"))
	_, stillThere := f.State().Errors[FieldName]
	assert.False(t, stillThere)
	assert.Len(t, f.State().Errors, 3)

	assert.ErrorIs(t, f.SetField("phone", "1"), ErrUnknownField)
	assert.Equal(t, []string{"contact:invalid"}, rec.outcomes)
}

func TestContactForm_ServerErrorKeepsFields(t *testing.T) {
	sub := &fakeSubmitter{err: &apierror.Error{Kind: apierror.KindServer, Message: apierror.DefaultMessage(apierror.KindServer), Status: 500}}
	f := NewContactForm(sub, quietLogger())
	fillContact(t, f)

	st, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, apierror.KindServer, st.ErrorKind)
	assert.Equal(t, "An unexpected error occurred. Please try again.", st.Banner)
	assert.Equal(t, "Ann", st.Fields.Name)
	assert.True(t, st.CanSubmit)

	require.NoError(t, f.SetField(FieldName, "Ann B"))
	st = f.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Empty(t, st.Banner)
	assert.Empty(t, st.ErrorKind)
	assert.True(t, st.CanSubmit)
}

func TestContactForm_RejectsSecondSubmitWhileInFlight(t *testing.T) {
	sub := &fakeSubmitter{release: make(chan struct{}), entered: make(chan struct{})}
	f := NewContactForm(sub, quietLogger())
	fillContact(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-sub.entered

	assert.Equal(t, PhaseSubmitting, f.State().Phase)
	assert.False(t, f.State().CanSubmit)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(sub.release)
	require.NoError(t, <-done)
	assert.Len(t, sub.contacts, 1)
}

func TestContactForm_ResetAndUnsubscribe(t *testing.T) {
	f := NewContactForm(&fakeSubmitter{}, quietLogger())
	calls := 0
	unsubscribe := f.Subscribe(func(ContactState) { calls++ })
	fillContact(t, f)
	assert.Equal(t, 4, calls)

	unsubscribe()
	f.Reset()
	assert.Equal(t, 4, calls)
	assert.Equal(t, ContactFields{}, f.State().Fields)
	assert.Equal(t, PhaseEditing, f.State().Phase)
}

func TestRateLimitBanner_Singular(t *testing.T) {
	assert.Equal(t, "Too many contact form submissions. Please try again in 1 minute.", RateLimitBanner(contactRateLimitSubject, 1))
	assert.Equal(t, "Too many applications submitted. Please try again in 15 minutes.", RateLimitBanner(applicationRateLimitSubject, 15))
}

func TestBanner(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation keeps server text", apierror.New(apierror.KindValidation, "Email already used"), "Email already used"},
		{"payload too large", apierror.New(apierror.KindPayloadTooLarge, "Request Entity Too Large"), "File is too large. Maximum size is 3MB."},
		{"unsupported media", apierror.New(apierror.KindUnsupportedMedia, "nope"), "Invalid file type. Please upload a PDF file."},
		{"timeout", apierror.New(apierror.KindTimeout, ""), "Request timeout. Please try again."},
		{"network", apierror.New(apierror.KindNetwork, ""), "Network error. Please check your connection."},
		{"server message", apierror.New(apierror.KindServer, "Database unavailable"), "Database unavailable"},
		{"plain error", errors.New("boom"), "An unexpected error occurred. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Banner(tt.err))
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.c", "ann@example.com", " ann@example.co.th "}
	invalid := []string{"", "ann", "ann@", "ann@example", "a@b", "@b.c", "a b@c.d", "a@b@c.d", "a@.c"}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func fillApplication(t *testing.T, f *ApplicationForm) {
	t.Helper()
	f.SetFields(domain.ApplicationFields{
		Name:        "Ann",
		Email:       "ann@example.com",
		Interest:    "I love Thai food",
		Pressure:    "I make lists",
		CoverLetter: "Dear BamBite",
	})
}

func pdf(size int64) domain.Attachment {
	return domain.Attachment{Filename: "cv.pdf", ContentType: PDFContentType, Size: size, Data: make([]byte, 0)}
}

func TestApplicationForm_SelectFile(t *testing.T) {
	f := NewApplicationForm("j1", &fakeSubmitter{}, quietLogger())

	require.NoError(t, f.SelectFile(pdf(MaxCVBytes)))
	require.NotNil(t, f.State().File)
	assert.Equal(t, int64(MaxCVBytes), f.State().File.Size)

	err := f.SelectFile(pdf(4 * 1024 * 1024))
	require.Error(t, err)
	assert.Equal(t, apierror.KindPayloadTooLarge, apierror.KindOf(err))
	st := f.State()
	assert.Equal(t, "File size must be less than 3MB", st.Banner)
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, int64(MaxCVBytes), st.File.Size, "previous selection is kept")

	err = f.SelectFile(pdf(MaxCVBytes + 1))
	assert.Equal(t, apierror.KindPayloadTooLarge, apierror.KindOf(err))

	err = f.SelectFile(domain.Attachment{Filename: "cv.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 10})
	assert.Equal(t, apierror.KindUnsupportedMedia, apierror.KindOf(err))
	assert.Equal(t, "Please upload a PDF file only", f.State().Banner)

	require.NoError(t, f.SelectFile(pdf(10)))
	assert.Empty(t, f.State().Banner)
	assert.Equal(t, PhaseEditing, f.State().Phase)
}

func TestApplicationForm_RejectedCVLogOmitsFilename(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	f := NewApplicationForm("j1", &fakeSubmitter{}, logger)

	err := f.SelectFile(domain.Attachment{Filename: "Ann_Smith_CV.DOCX", ContentType: "application/msword", Size: 10})
	require.Error(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, ".docx", entry.Data["extension"])
	assert.NotContains(t, entry.Data, "filename")
	for _, v := range entry.Data {
		assert.NotContains(t, fmt.Sprint(v), "Ann_Smith")
	}
	assert.NotContains(t, entry.Message, "Ann_Smith")
}

func TestApplicationForm_SuccessRedirects(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	f := NewApplicationForm("j1", sub, quietLogger(), WithRecorder(rec))
	fillApplication(t, f)
	require.NoError(t, f.SelectFile(pdf(1024)))

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "/career/j1/apply/success?jobId=j1", st.Redirect)
	assert.Equal(t, domain.ApplicationFields{}, st.Fields)
	assert.Nil(t, st.File)

	require.Len(t, sub.apps, 1)
	app := sub.apps[0]
	assert.Equal(t, "j1", app.JobPostID)
	assert.Equal(t, "I love Thai food", app.JoiningReason)
	assert.Equal(t, "I make lists", app.AdditionalQuestion)
	require.NotNil(t, app.UploadedFile)
	assert.Equal(t, []string{"application:success"}, rec.outcomes)
}

func TestApplicationForm_WithoutFileAndRateLimited(t *testing.T) {
	sub := &fakeSubmitter{err: apierror.NewRateLimited("", 0)}
	f := NewApplicationForm("j2", sub, quietLogger())
	fillApplication(t, f)

	st, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseRateLimited, st.Phase)
	assert.Equal(t, 15, st.RetryAfter)
	assert.Equal(t, "Too many applications submitted. Please try again in 15 minutes.", st.Banner)
	assert.Equal(t, "Ann", st.Fields.Name)
	require.Len(t, sub.apps, 1)
	assert.Nil(t, sub.apps[0].UploadedFile)
}

func TestApplicationForm_Validation(t *testing.T) {
	f := NewApplicationForm("j1", &fakeSubmitter{}, quietLogger())
	st, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, "Cover letter is required", st.Errors[FieldCoverLetter])
	assert.Equal(t, "This field is required", st.Errors[FieldInterest])
	assert.Equal(t, "This field is required", st.Errors[FieldPressure])
	assert.Equal(t, "Email is required", st.Errors[FieldEmail])
}

func TestRegistry_KeysBySessionAndJob(t *testing.T) {
	r := NewRegistry(&fakeSubmitter{}, time.Hour, 0, quietLogger())
	assert.Same(t, r.Contact("s1"), r.Contact("s1"))
	assert.NotSame(t, r.Contact("s1"), r.Contact("s2"))

	a := r.Application("s1", "j1")
	assert.Same(t, a, r.Application("s1", "j1"))
	assert.NotSame(t, a, r.Application("s1", "j2"))
	assert.Equal(t, "j1", a.State().JobID)
	assert.Equal(t, 0, r.Sweep())
}

func TestRegistry_ReadsAndLimit(t *testing.T) {
	r := NewRegistry(&fakeSubmitter{}, time.Hour, 2, quietLogger())

	assert.Equal(t, PhaseEditing, r.ContactState("s1").Phase)
	assert.Equal(t, "j9", r.ApplicationState("s1", "j9").JobID)
	_, ok := r.ExistingApplication("s1", "j9")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	r.Application("s1", "j1")
	r.Application("s1", "j2")
	r.Application("s1", "j3")
	assert.Equal(t, 2, r.Len())
	_, ok = r.ExistingApplication("s1", "j3")
	assert.True(t, ok)
}
