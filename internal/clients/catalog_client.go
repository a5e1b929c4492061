package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/domain"

	"github.com/sirupsen/logrus"
)

type ProductQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	// Category is an uppercase token or a category identifier. "All" is
	// never forwarded.
	Category string
}

func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if s := strings.TrimSpace(q.SortBy); s != "" {
		v.Set("sortBy", s)
	}
	if order := strings.ToLower(strings.TrimSpace(q.SortOrder)); order == "asc" || order == "desc" {
		v.Set("sortOrder", order)
	}
	if c := strings.TrimSpace(q.Category); c != "" && !strings.EqualFold(c, domain.AllCategories) {
		v.Set("category", c)
	}
	return v
}

type JobPostQuery struct {
	PlaceTagID string
	Search     string
}

func (q JobPostQuery) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.PlaceTagID); s != "" {
		v.Set("placeTagId", s)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// CatalogClient reads the public catalog. Absent resources are reported as a
// nil result with a nil error.
type CatalogClient interface {
	ListProducts(ctx context.Context, q ProductQuery) (*domain.ProductList, error)
	GetProduct(ctx context.Context, id string) (*domain.APIProduct, error)
	ListActiveCategories(ctx context.Context) []domain.Category
	ListJobPosts(ctx context.Context, q JobPostQuery) ([]domain.APIJobPost, error)
	GetJobPost(ctx context.Context, id string) (*domain.APIJobPost, error)
}

type catalogHTTPClient struct {
	backend         Backend
	classifier      *apierror.Classifier
	productFallback bool
	log             *logrus.Logger
}

// NewCatalogClient builds the read client. productFallback enables the
// list-and-filter lookup for backends without GET /products/{id}; it is meant
// for development only.
func NewCatalogClient(backend Backend, classifier *apierror.Classifier, productFallback bool, logger *logrus.Logger) CatalogClient {
	return &catalogHTTPClient{
		backend:         backend,
		classifier:      classifier,
		productFallback: productFallback,
		log:             logger,
	}
}

func (c *catalogHTTPClient) ListProducts(ctx context.Context, q ProductQuery) (*domain.ProductList, error) {
	c.log.Debugf("CatalogClient: Listing products with query %q", q.Values().Encode())
	env, err := c.classifier.Classify(c.backend.GetJSON(ctx, productsEndpoint, q.Values()))
	if err != nil {
		return nil, err
	}

	var products []domain.APIProduct
	if err := decodeData(env, &products); err != nil {
		c.log.Errorf("CatalogClient: Failed to decode product list: %v", err)
		return nil, err
	}

	meta := domain.PageMeta{Page: q.Page, Limit: q.Limit, Total: len(products)}
	if env.Meta != nil {
		meta = domain.PageMeta{Page: env.Meta.Page, Limit: env.Meta.Limit, Total: env.Meta.Total}
	}
	return &domain.ProductList{Products: products, Meta: meta}, nil
}

func (c *catalogHTTPClient) GetProduct(ctx context.Context, id string) (*domain.APIProduct, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	env, err := c.classifier.Classify(c.backend.GetJSON(ctx, productsEndpoint+"/"+url.PathEscape(id), nil))
	if err != nil {
		var apiErr *apierror.Error
		if !errors.As(err, &apiErr) || apiErr.Kind != apierror.KindNotFound {
			return nil, err
		}
		if apiErr.RouteMissing && c.productFallback {
			c.log.Warnf("CatalogClient: GET %s/{id} not available, using list fallback for product %s", productsEndpoint, id)
			return c.findProductInList(ctx, id)
		}
		c.log.Infof("CatalogClient: Product %s not found", id)
		return nil, nil
	}

	var product *domain.APIProduct
	if err := decodeData(env, &product); err != nil {
		c.log.Errorf("CatalogClient: Failed to decode product %s: %v", id, err)
		return nil, err
	}
	if product == nil || product.ID == "" {
		return nil, nil
	}
	return product, nil
}

func (c *catalogHTTPClient) findProductInList(ctx context.Context, id string) (*domain.APIProduct, error) {
	list, err := c.ListProducts(ctx, ProductQuery{Limit: fallbackListLimit})
	if err != nil {
		return nil, err
	}
	for i := range list.Products {
		if list.Products[i].ID == id {
			p := list.Products[i]
			return &p, nil
		}
	}
	return nil, nil
}

type apiCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive *bool  `json:"isActive"`
}

func (c *catalogHTTPClient) ListActiveCategories(ctx context.Context) []domain.Category {
	env, err := c.classifier.Classify(c.backend.GetJSON(ctx, activeCategoriesEndpoint, nil))
	if err != nil {
		c.log.Warnf("CatalogClient: Failed to load active categories, falling back to built-in list: %v", err)
		return []domain.Category{}
	}

	var raw []apiCategory
	if err := decodeData(env, &raw); err != nil {
		c.log.Warnf("CatalogClient: Failed to decode active categories: %v", err)
		return []domain.Category{}
	}

	categories := make([]domain.Category, 0, len(raw))
	for _, rc := range raw {
		if rc.IsActive != nil && !*rc.IsActive {
			continue
		}
		if strings.TrimSpace(rc.Name) == "" {
			continue
		}
		categories = append(categories, domain.Category{ID: rc.ID, Name: rc.Name, IsActive: true})
	}
	return categories
}

func (c *catalogHTTPClient) ListJobPosts(ctx context.Context, q JobPostQuery) ([]domain.APIJobPost, error) {
	env, err := c.classifier.Classify(c.backend.GetJSON(ctx, jobPostsEndpoint, q.Values()))
	if err != nil {
		return nil, err
	}
	var posts []domain.APIJobPost
	if err := decodeData(env, &posts); err != nil {
		c.log.Errorf("CatalogClient: Failed to decode job posts: %v", err)
		return nil, err
	}
	if posts == nil {
		posts = []domain.APIJobPost{}
	}
	return posts, nil
}

func (c *catalogHTTPClient) GetJobPost(ctx context.Context, id string) (*domain.APIJobPost, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	env, err := c.classifier.Classify(c.backend.GetJSON(ctx, jobPostsEndpoint+"/"+url.PathEscape(id), nil))
	if err != nil {
		if apierror.IsNotFound(err) {
			c.log.Infof("CatalogClient: Job post %s not found", id)
			return nil, nil
		}
		return nil, err
	}

	var wrapped struct {
		JobPost *domain.APIJobPost `json:"jobPost"`
	}
	if err := decodeData(env, &wrapped); err != nil {
		c.log.Errorf("CatalogClient: Failed to decode job post %s: %v", id, err)
		return nil, err
	}
	if wrapped.JobPost == nil || wrapped.JobPost.ID == "" {
		return nil, nil
	}
	return wrapped.JobPost, nil
}

// decodeData unmarshals env.Data into out. A missing data field leaves out
// untouched.
func decodeData(env *apierror.Envelope, out any) error {
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &apierror.Error{
			Kind:    apierror.KindUnknown,
			Message: apierror.DefaultMessage(apierror.KindUnknown),
			Err:     fmt.Errorf("decode response data: %w", err),
		}
	}
	return nil
}
