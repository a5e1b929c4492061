package clients

import (
	"context"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"
	"bambite_gateway/internal/transport"

	"github.com/sirupsen/logrus"
)

// SubmissionClient posts the anonymous forms. Each call is a single attempt.
type SubmissionClient interface {
	SubmitContact(ctx context.Context, payload domain.ContactSubmission) (*domain.ContactReceipt, error)
	SubmitJobApplication(ctx context.Context, app domain.JobApplication) (*domain.ApplicationReceipt, error)
}

type submissionHTTPClient struct {
	backend    Backend
	classifier *apierror.Classifier
	log        *logrus.Logger
}

func NewSubmissionClient(backend Backend, classifier *apierror.Classifier, logger *logrus.Logger) SubmissionClient {
	return &submissionHTTPClient{
		backend:    backend,
		classifier: classifier,
		log:        logger,
	}
}

func (c *submissionHTTPClient) SubmitContact(ctx context.Context, payload domain.ContactSubmission) (*domain.ContactReceipt, error) {
	c.log.Debugf("SubmissionClient: Submitting contact form (reason %s)", payload.Reason)
	env, err := c.classifier.Classify(c.backend.PostJSON(ctx, contactsEndpoint, payload))
	if err != nil {
		return nil, err
	}

	receipt := &domain.ContactReceipt{Status: env.Status, Message: env.Message}
	if err := decodeData(env, &receipt.Data); err != nil {
		c.log.Warnf("SubmissionClient: Contact receipt data not an object: %v", err)
	}
	c.log.Info("SubmissionClient: Contact form accepted")
	return receipt, nil
}

func (c *submissionHTTPClient) SubmitJobApplication(ctx context.Context, app domain.JobApplication) (*domain.ApplicationReceipt, error) {
	c.log.Debugf("SubmissionClient: Submitting application for job post %s (attachment: %t)", app.JobPostID, app.UploadedFile != nil)
	env, err := c.classifier.Classify(c.backend.PostMultipart(ctx, applyJobsEndpoint, applicationParts(app)))
	if err != nil {
		return nil, err
	}

	receipt := &domain.ApplicationReceipt{Status: env.Status, Message: env.Message}
	if err := decodeData(env, &receipt.Data); err != nil {
		c.log.Warnf("SubmissionClient: Application receipt data not an object: %v", err)
	}
	c.log.Infof("SubmissionClient: Application for job post %s accepted", app.JobPostID)
	return receipt, nil
}

func applicationParts(app domain.JobApplication) []transport.Part {
	parts := []transport.Part{
		{Name: "jobPostId", Value: app.JobPostID},
		{Name: "name", Value: app.Name},
		{Name: "email", Value: app.Email},
		{Name: "joiningReason", Value: app.JoiningReason},
		{Name: "additionalQuestion", Value: app.AdditionalQuestion},
		{Name: "coverLetter", Value: app.CoverLetter},
	}
	if f := app.UploadedFile; f != nil {
		parts = append(parts, transport.Part{
			Name:        "uploadedFile",
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Data:        f.Data,
		})
	}
	return parts
}
