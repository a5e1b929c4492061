package apierror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"bambite_gateway/internal/transport"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) RecordBackendOutcome(_, _, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newTestClassifier(rec OutcomeRecorder) *Classifier {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewClassifier(l, true, rec)
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{
		Method:      http.MethodPost,
		Endpoint:    "/contacts",
		StatusCode:  status,
		ContentType: "application/json",
		JSON:        true,
		Body:        []byte(body),
	}
}

func TestClassify_StatusKinds(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		kind    Kind
		message string
	}{
		{400, `{"status":"error","message":"email is invalid"}`, KindValidation, "email is invalid"},
		{400, `{"status":"error"}`, KindValidation, DefaultMessage(KindValidation)},
		{404, `{"status":"error","message":"Job post not found"}`, KindNotFound, "Job post not found"},
		{413, `{"status":"error","message":"too big"}`, KindPayloadTooLarge, "too big"},
		{415, `{"status":"error"}`, KindUnsupportedMedia, DefaultMessage(KindUnsupportedMedia)},
		{500, `{"status":"error","message":"db down"}`, KindServer, "db down"},
		{503, `<html>unavailable</html>`, KindServer, DefaultMessage(KindServer)},
		{401, `{"status":"error","message":"nope"}`, KindServer, "nope"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			_, err := newTestClassifier(nil).Classify(jsonResponse(tt.status, tt.body), nil)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.message, Message(err))
			_, isRateLimit := RetryAfter(err)
			assert.False(t, isRateLimit)
		})
	}
}

func TestClassify_RateLimitedCarriesRetryAfter(t *testing.T) {
	c := newTestClassifier(nil)

	_, err := c.Classify(jsonResponse(429, `{"status":"error","message":"slow down","retryAfter":7}`), nil)
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, "slow down", Message(err))
	retry, ok := RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 7, retry)

	_, err = c.Classify(jsonResponse(429, `{"status":"error","message":"slow down"}`), nil)
	retry, ok = RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, DefaultRetryAfterMinutes, retry)

	_, err = c.Classify(jsonResponse(429, `not json`), nil)
	retry, ok = RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 15, retry)

	_, err = c.Classify(jsonResponse(429, `{"status":"error","message":"slow down","retryAfter":1e300}`), nil)
	retry, ok = RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, MaxRetryAfterMinutes, retry)
}

func TestRetryAfterClamped(t *testing.T) {
	retry, ok := RetryAfter(NewRateLimited("x", 200000000000))
	require.True(t, ok)
	assert.Equal(t, MaxRetryAfterMinutes, retry)

	retry, _ = RetryAfter(&RateLimitError{Cause: Error{Kind: KindRateLimited}, RetryAfter: -3})
	assert.Equal(t, DefaultRetryAfterMinutes, retry)
}

func TestClassify_NotFoundRouteMissing(t *testing.T) {
	c := newTestClassifier(nil)

	res := &transport.Response{Method: http.MethodGet, Endpoint: "/products/p1", StatusCode: 404, ContentType: "text/html", Body: []byte("Cannot GET /api/v1/products/p1")}
	_, err := c.Classify(res, nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.RouteMissing)

	_, err = c.Classify(jsonResponse(404, `{"status":"error","message":"Product not found"}`), nil)
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.RouteMissing)
	assert.True(t, IsNotFound(err))
}

func TestClassify_SuccessEnvelope(t *testing.T) {
	rec := &countingRecorder{}
	env, err := newTestClassifier(rec).Classify(jsonResponse(200, `{"status":"success","data":[1,2],"meta":{"page":1,"limit":100,"total":2}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `[1,2]`, string(env.Data))
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Total)
	assert.Equal(t, []string{"success"}, rec.outcomes)
}

func TestClassify_NonSuccessStatusIn2xxIsServerError(t *testing.T) {
	_, err := newTestClassifier(nil).Classify(jsonResponse(200, `{"status":"error","message":"queued failed"}`), nil)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, "queued failed", Message(err))

	_, err = newTestClassifier(nil).Classify(jsonResponse(201, `{"data":{}}`), nil)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestClassify_Undecodable2xxIsUnknown(t *testing.T) {
	_, err := newTestClassifier(nil).Classify(jsonResponse(200, `{broken`), nil)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestClassify_TransportErrors(t *testing.T) {
	rec := &countingRecorder{}
	c := newTestClassifier(rec)

	_, err := c.Classify(nil, &transport.Error{Op: "send request", Method: "GET", Endpoint: "/products", Timeout: true, Err: context.DeadlineExceeded})
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, "Request timeout. Please try again.", Message(err))

	_, err = c.Classify(nil, &transport.Error{Op: "send request", Method: "GET", Endpoint: "/products", Err: errors.New("connection refused")})
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, "Network error. Please check your connection.", Message(err))

	_, err = c.Classify(nil, errors.New("boom"))
	assert.Equal(t, KindUnknown, KindOf(err))

	assert.Equal(t, []string{"timeout", "network", "unknown"}, rec.outcomes)
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(KindTimeout))
	assert.True(t, IsRecoverable(KindNetwork))
	assert.True(t, IsRecoverable(KindServer))
	assert.False(t, IsRecoverable(KindNotFound))
	assert.False(t, IsRecoverable(KindValidation))
	assert.False(t, IsRecoverable(KindRateLimited))
}
