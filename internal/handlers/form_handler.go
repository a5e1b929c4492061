package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"bambite_gateway/internal/domain"
	"bambite_gateway/internal/forms"
	"bambite_gateway/internal/middleware"
	"bambite_gateway/internal/usecase"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	cvFormField = "file"
	// maxUploadBody caps the CV request; anything above the CV limit is
	// rejected as too large without reading the file.
	maxUploadBody = 2 * forms.MaxCVBytes
	octetStream   = "application/octet-stream"
)

type FormHandler struct {
	forms   *forms.Registry
	catalog usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewFormHandler(registry *forms.Registry, catalog usecase.CatalogUseCase, logger *logrus.Logger) *FormHandler {
	return &FormHandler{forms: registry, catalog: catalog, log: logger}
}

// writeContext keeps a submission running after the browser goes away.
func writeContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *FormHandler) ContactState(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.forms.ContactState(middleware.GetSessionID(c)))
}

func (h *FormHandler) SubmitContact(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "SubmitContact", "session": middleware.GetSessionID(c)})
	var req forms.ContactFields
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, handlerLogger, err)
		return
	}

	form := h.forms.Contact(middleware.GetSessionID(c))
	form.SetFields(req)
	st, err := form.Submit(writeContext(c))
	if err != nil {
		h.writeFormFailure(c, handlerLogger, err, st.Status, st)
		return
	}
	SuccessResponse(c, http.StatusOK, "Message sent", st)
}

func (h *FormHandler) ApplicationState(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "ApplicationState", "job_id": c.Param("id")})
	job, err := h.catalog.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	if job == nil {
		writeNotFound(c, "Job post not found", careerBackLink, notFoundRedirect)
		return
	}

	state := h.forms.ApplicationState(middleware.GetSessionID(c), job.ID)
	SuccessResponse(c, http.StatusOK, "", gin.H{"job": job, "form": state})
}

// applicationForm returns the session's form for the job in the path. A form
// is only created once the job is known to exist.
func (h *FormHandler) applicationForm(c *gin.Context, logger logrus.FieldLogger) (*forms.ApplicationForm, bool) {
	sessionID, jobID := middleware.GetSessionID(c), c.Param("id")
	if form, ok := h.forms.ExistingApplication(sessionID, jobID); ok {
		return form, true
	}
	job, err := h.catalog.Job(c.Request.Context(), jobID)
	if err != nil {
		writeAPIError(c, logger, err)
		return nil, false
	}
	if job == nil {
		writeNotFound(c, "Job post not found", careerBackLink, notFoundRedirect)
		return nil, false
	}
	return h.forms.Application(sessionID, job.ID), true
}

func (h *FormHandler) SelectCV(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "SelectCV", "job_id": c.Param("id")})
	form, ok := h.applicationForm(c, handlerLogger)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	header, err := c.FormFile(cvFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			selErr := form.SelectFile(domain.Attachment{Size: max(c.Request.ContentLength, maxUploadBody+1)})
			st := form.State()
			h.writeFormFailure(c, handlerLogger, selErr, st.Status, st)
			return
		}
		writeBadRequest(c, handlerLogger, err)
		return
	}

	att := domain.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if att.Size <= forms.MaxCVBytes {
		f, err := header.Open()
		if err != nil {
			writeBadRequest(c, handlerLogger, err)
			return
		}
		defer f.Close()
		if att.Data, err = io.ReadAll(f); err != nil {
			writeBadRequest(c, handlerLogger, err)
			return
		}
		if att.ContentType == "" || att.ContentType == octetStream {
			att.ContentType = mimetype.Detect(att.Data).String()
			handlerLogger.Debugf("Sniffed CV content type %s", att.ContentType)
		}
	}

	if err := form.SelectFile(att); err != nil {
		st := form.State()
		h.writeFormFailure(c, handlerLogger, err, st.Status, st)
		return
	}
	SuccessResponse(c, http.StatusOK, "", form.State())
}

func (h *FormHandler) SubmitApplication(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "SubmitApplication", "job_id": c.Param("id")})
	var req domain.ApplicationFields
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, handlerLogger, err)
		return
	}

	form, ok := h.applicationForm(c, handlerLogger)
	if !ok {
		return
	}
	form.SetFields(req)
	st, err := form.Submit(writeContext(c))
	if err != nil {
		h.writeFormFailure(c, handlerLogger, err, st.Status, st)
		return
	}
	SuccessResponse(c, http.StatusOK, "Application submitted", st)
}

func (h *FormHandler) writeFormFailure(c *gin.Context, logger logrus.FieldLogger, err error, st forms.Status, state any) {
	status := http.StatusBadGateway
	message := st.Banner
	switch {
	case errors.Is(err, forms.ErrInvalidForm):
		status = http.StatusBadRequest
		message = "Please fix the highlighted fields."
	case errors.Is(err, forms.ErrSubmissionInFlight):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, forms.ErrCoolingDown):
		status = http.StatusTooManyRequests
		message = err.Error()
	case isAPIError(err):
		status = statusForKind(errorBody(err).Kind)
	}
	logger.Warnf("Form submission rejected with HTTP Status %d: %v", status, err)
	c.JSON(status, Response{Status: "error", Message: message, Data: state})
}
