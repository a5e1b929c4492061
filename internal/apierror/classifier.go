package apierror

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"bambite_gateway/internal/transport"

	"github.com/sirupsen/logrus"
)

const statusSuccess = "success"

// Envelope is the backend's response wrapper.
type Envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Meta       *Meta           `json:"meta,omitempty"`
	RetryAfter *float64        `json:"retryAfter,omitempty"`
}

type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// OutcomeRecorder counts classification results per endpoint.
type OutcomeRecorder interface {
	RecordBackendOutcome(method, endpoint, outcome string)
}

// Classifier turns one transport outcome into an envelope or a tagged error.
type Classifier struct {
	log         *logrus.Logger
	development bool
	recorder    OutcomeRecorder
}

func NewClassifier(logger *logrus.Logger, development bool, recorder OutcomeRecorder) *Classifier {
	return &Classifier{
		log:         logger,
		development: development,
		recorder:    recorder,
	}
}

func (c *Classifier) Classify(res *transport.Response, err error) (*Envelope, error) {
	if err != nil {
		classified := c.fromTransportError(err)
		c.report(classified, 0)
		return nil, classified
	}
	if res == nil {
		classified := &Error{Kind: KindUnknown, Message: DefaultMessage(KindUnknown)}
		c.report(classified, 0)
		return nil, classified
	}

	env, decodeErr := decodeEnvelope(res)

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if decodeErr != nil {
			classified := &Error{
				Kind:     KindUnknown,
				Message:  DefaultMessage(KindUnknown),
				Status:   res.StatusCode,
				Method:   res.Method,
				Endpoint: res.Endpoint,
				Err:      decodeErr,
			}
			c.report(classified, res.StatusCode)
			return nil, classified
		}
		if env.Status != statusSuccess {
			classified := &Error{
				Kind:     KindServer,
				Message:  messageOr(env.Message, KindServer),
				Status:   res.StatusCode,
				Method:   res.Method,
				Endpoint: res.Endpoint,
			}
			c.report(classified, res.StatusCode)
			return nil, classified
		}
		c.record(res.Method, res.Endpoint, statusSuccess)
		return env, nil
	}

	var serverMsg string
	if env != nil {
		serverMsg = env.Message
	}
	base := Error{
		Status:   res.StatusCode,
		Method:   res.Method,
		Endpoint: res.Endpoint,
	}

	var classified error
	switch res.StatusCode {
	case http.StatusBadRequest:
		base.Kind = KindValidation
	case http.StatusNotFound:
		base.Kind = KindNotFound
		base.RouteMissing = env == nil || env.Status == ""
	case http.StatusRequestEntityTooLarge:
		base.Kind = KindPayloadTooLarge
	case http.StatusUnsupportedMediaType:
		base.Kind = KindUnsupportedMedia
	case http.StatusTooManyRequests:
		base.Kind = KindRateLimited
	default:
		base.Kind = KindServer
	}
	base.Message = messageOr(serverMsg, base.Kind)

	if base.Kind == KindRateLimited {
		retryAfter := DefaultRetryAfterMinutes
		if env != nil && env.RetryAfter != nil && *env.RetryAfter > 0 {
			retryAfter = int(math.Ceil(math.Min(*env.RetryAfter, MaxRetryAfterMinutes)))
		}
		classified = &RateLimitError{Cause: base, RetryAfter: retryAfter}
	} else {
		e := base
		classified = &e
	}
	c.report(classified, res.StatusCode)
	return nil, classified
}

func (c *Classifier) fromTransportError(err error) *Error {
	var tErr *transport.Error
	if !errors.As(err, &tErr) {
		return &Error{Kind: KindUnknown, Message: DefaultMessage(KindUnknown), Err: err}
	}
	kind := KindNetwork
	if tErr.Timeout {
		kind = KindTimeout
	} else if tErr.Op != "send request" && tErr.Op != "read response" {
		kind = KindUnknown
	}
	return &Error{
		Kind:     kind,
		Message:  DefaultMessage(kind),
		Method:   tErr.Method,
		Endpoint: tErr.Endpoint,
		Err:      err,
	}
}

func (c *Classifier) report(err error, status int) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return
	}
	c.record(apiErr.Method, apiErr.Endpoint, string(apiErr.Kind))

	if c.log == nil {
		return
	}
	if c.development {
		c.log.WithFields(logrus.Fields{
			"endpoint": apiErr.Endpoint,
			"method":   apiErr.Method,
			"status":   status,
			"message":  apiErr.Message,
			"kind":     apiErr.Kind,
		}).Warn("Classifier: backend request failed")
		return
	}
	c.log.WithFields(logrus.Fields{
		"endpoint": apiErr.Endpoint,
		"status":   status,
	}).Warn("Classifier: backend request failed")
}

func (c *Classifier) record(method, endpoint, outcome string) {
	if c.recorder != nil {
		c.recorder.RecordBackendOutcome(method, endpoint, outcome)
	}
}

// decodeEnvelope returns nil without error for bodies that are not JSON.
func decodeEnvelope(res *transport.Response) (*Envelope, error) {
	if len(res.Body) == 0 {
		return nil, errors.New("empty response body")
	}
	if !res.JSON && !looksLikeJSON(res.Body) {
		return nil, errors.New("response is not JSON: " + res.ContentType)
	}
	var env Envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}

func messageOr(serverMsg string, k Kind) string {
	if strings.TrimSpace(serverMsg) != "" {
		return serverMsg
	}
	return DefaultMessage(k)
}
