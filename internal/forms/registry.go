package forms

import (
	"strings"
	"time"

	"bambite_gateway/internal/session"

	"github.com/sirupsen/logrus"
)

// Registry keeps one contact form per browser session and one application
// form per session and job.
type Registry struct {
	contact     *session.Store[*ContactForm]
	application *session.Store[*ApplicationForm]
}

type Submitter interface {
	ContactSubmitter
	ApplicationSubmitter
}

// NewRegistry builds the registry. maxForms caps how many forms of each kind
// are held at once; zero means no cap.
func NewRegistry(submitter Submitter, idleTTL time.Duration, maxForms int, logger *logrus.Logger, opts ...Option) *Registry {
	return &Registry{
		contact: session.NewStore("contact-forms", idleTTL, func(string) *ContactForm {
			return NewContactForm(submitter, logger, opts...)
		}, logger, session.WithLimit(maxForms)),
		application: session.NewStore("application-forms", idleTTL, func(key string) *ApplicationForm {
			_, jobID := splitApplicationKey(key)
			return NewApplicationForm(jobID, submitter, logger, opts...)
		}, logger, session.WithLimit(maxForms)),
	}
}

// Contact returns the session's contact form, creating it on first use.
func (r *Registry) Contact(sessionID string) *ContactForm {
	return r.contact.Get(sessionID)
}

// ContactState reads the session's contact form without creating one.
func (r *Registry) ContactState(sessionID string) ContactState {
	return r.contact.View(sessionID).State()
}

// Application returns the form for the session and job, creating it on first
// use. Callers check that the job exists first.
func (r *Registry) Application(sessionID, jobID string) *ApplicationForm {
	return r.application.Get(applicationKey(sessionID, jobID))
}

// ExistingApplication returns the form only if one was already created.
func (r *Registry) ExistingApplication(sessionID, jobID string) (*ApplicationForm, bool) {
	return r.application.Peek(applicationKey(sessionID, jobID))
}

// ApplicationState reads the form for the session and job without creating
// one.
func (r *Registry) ApplicationState(sessionID, jobID string) ApplicationState {
	return r.application.View(applicationKey(sessionID, jobID)).State()
}

// Len reports how many forms are held.
func (r *Registry) Len() int {
	return r.contact.Len() + r.application.Len()
}

// Sweep drops forms whose sessions have gone idle.
func (r *Registry) Sweep() int {
	return r.contact.Sweep() + r.application.Sweep()
}

const keySeparator = "\x00"

func applicationKey(sessionID, jobID string) string {
	return sessionID + keySeparator + jobID
}

func splitApplicationKey(key string) (string, string) {
	sessionID, jobID, _ := strings.Cut(key, keySeparator)
	return sessionID, jobID
}
