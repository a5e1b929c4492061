package clients

import (
	"context"
	"net/url"

	"bambite_gateway/internal/transport"
)

// Backend is the subset of the transport the clients need.
type Backend interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values) (*transport.Response, error)
	PostJSON(ctx context.Context, endpoint string, body any) (*transport.Response, error)
	PostMultipart(ctx context.Context, endpoint string, parts []transport.Part) (*transport.Response, error)
}

const (
	productsEndpoint         = "/products"
	activeCategoriesEndpoint = "/categories/active"
	jobPostsEndpoint         = "/job-posts"
	contactsEndpoint         = "/contacts"
	applyJobsEndpoint        = "/apply-jobs"

	// fallbackListLimit is the page size used when the single-product route
	// is missing and the product is looked up in the list instead.
	fallbackListLimit = 1000
)
