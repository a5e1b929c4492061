package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmissions(t *testing.T, handler http.HandlerFunc) SubmissionClient {
	t.Helper()
	log := quietLogger()
	return NewSubmissionClient(newBackend(t, handler), apierror.NewClassifier(log, false, nil), log)
}

func TestSubmitContact_Success(t *testing.T) {
	client := newSubmissions(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/contacts", r.URL.Path)
		var got domain.ContactSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, domain.ReasonFeedback, got.Reason)
		writeJSON(w, http.StatusCreated, `{"status":"success","data":{"id":"c1"}}`)
	})

	receipt, err := client.SubmitContact(context.Background(), domain.ContactSubmission{
		Name: "Ann", Email: "ann@example.com", Reason: domain.ReasonFeedback, Message: "Great noodles",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", receipt.Status)
	assert.Equal(t, "c1", receipt.Data["id"])
}

func TestSubmitContact_RateLimited(t *testing.T) {
	client := newSubmissions(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{"status":"error","message":"Too many submissions","retryAfter":10}`)
	})

	_, err := client.SubmitContact(context.Background(), domain.ContactSubmission{Name: "a"})
	require.Error(t, err)
	assert.Equal(t, apierror.KindRateLimited, apierror.KindOf(err))
	retry, ok := apierror.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 10, retry)
}

func TestSubmitContact_NonSuccessStatus(t *testing.T) {
	client := newSubmissions(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"fail","message":"not stored"}`)
	})

	_, err := client.SubmitContact(context.Background(), domain.ContactSubmission{})
	assert.Equal(t, apierror.KindServer, apierror.KindOf(err))
}

func TestSubmitJobApplication_SendsWireNames(t *testing.T) {
	client := newSubmissions(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apply-jobs", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(8<<20))
		assert.Equal(t, "job-9", r.FormValue("jobPostId"))
		assert.Equal(t, "Ann", r.FormValue("name"))
		assert.Equal(t, "ann@example.com", r.FormValue("email"))
		assert.Equal(t, "love the food", r.FormValue("joiningReason"))
		assert.Equal(t, "stay calm", r.FormValue("additionalQuestion"))
		assert.Equal(t, "hire me", r.FormValue("coverLetter"))
		assert.Empty(t, r.FormValue("interest"))

		f, hdr, err := r.FormFile("uploadedFile")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cv.pdf", hdr.Filename)
		assert.Len(t, data, 1<<20)
		writeJSON(w, http.StatusCreated, `{"status":"success","data":{"id":"app-1"}}`)
	})

	receipt, err := client.SubmitJobApplication(context.Background(), domain.JobApplication{
		JobPostID:          "job-9",
		Name:               "Ann",
		Email:              "ann@example.com",
		JoiningReason:      "love the food",
		AdditionalQuestion: "stay calm",
		CoverLetter:        "hire me",
		UploadedFile: &domain.Attachment{
			Filename: "cv.pdf", ContentType: "application/pdf", Size: 1 << 20, Data: make([]byte, 1<<20),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "app-1", receipt.Data["id"])
}

func TestSubmitJobApplication_UploadErrors(t *testing.T) {
	tests := []struct {
		status int
		kind   apierror.Kind
	}{
		{http.StatusRequestEntityTooLarge, apierror.KindPayloadTooLarge},
		{http.StatusUnsupportedMediaType, apierror.KindUnsupportedMedia},
		{http.StatusBadRequest, apierror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			client := newSubmissions(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, `{"status":"error","message":"rejected"}`)
			})
			_, err := client.SubmitJobApplication(context.Background(), domain.JobApplication{JobPostID: "j"})
			assert.Equal(t, tt.kind, apierror.KindOf(err))
		})
	}
}
