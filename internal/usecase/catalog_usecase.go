package usecase

import (
	"context"
	"errors"
	"fmt"

	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/clients"
	"bambite_gateway/internal/domain"
	"bambite_gateway/internal/mapper"

	"github.com/sirupsen/logrus"
)

const (
	// MenuPageLimit is how many products the menu page asks for.
	MenuPageLimit = 100
	// RelatedPageLimit is how many products are fetched to pick related ones from.
	RelatedPageLimit = 10
	MaxRelated       = 3
)

var ErrProductUnavailable = errors.New("product cannot be displayed")

type MenuView struct {
	Categories []string         `json:"categories"`
	Selected   string           `json:"selected"`
	Products   []domain.Product `json:"products"`
	Meta       domain.PageMeta  `json:"meta"`
}

type CatalogUseCase interface {
	Menu(ctx context.Context, category string) (*MenuView, error)
	// Product returns nil, nil when the product does not exist.
	Product(ctx context.Context, id string) (*domain.Product, error)
	// ProductDetail returns nil, nil when the product does not exist.
	ProductDetail(ctx context.Context, id string) (*domain.ProductDetail, error)
	Careers(ctx context.Context, q clients.JobPostQuery) ([]domain.Job, error)
	// Job returns nil, nil when the job post does not exist.
	Job(ctx context.Context, id string) (*domain.Job, error)
}

var _ CatalogUseCase = (*catalogUseCase)(nil)

type catalogUseCase struct {
	catalog clients.CatalogClient
	log     *logrus.Logger
}

func NewCatalogUseCase(catalog clients.CatalogClient, logger *logrus.Logger) CatalogUseCase {
	return &catalogUseCase{catalog: catalog, log: logger}
}

func (uc *catalogUseCase) Menu(ctx context.Context, category string) (*MenuView, error) {
	categories := uc.catalog.ListActiveCategories(ctx)
	filter := mapper.CategoryFilterValue(category, categories)

	list, err := uc.catalog.ListProducts(ctx, clients.ProductQuery{Limit: MenuPageLimit, Category: filter})
	if err != nil {
		uc.log.Warnf("Use Case: Menu listing failed (category %q): %v", category, err)
		return nil, fmt.Errorf("list products: %w", err)
	}

	products, dropped := mapper.ProductsFromAPI(list.Products, categories)
	for _, d := range dropped {
		uc.log.Warnf("Use Case: Dropped product from menu: %v", d)
	}

	selected := category
	if selected == "" {
		selected = domain.AllCategories
	}
	uc.log.Infof("Use Case: Menu built with %d products (category %s)", len(products), selected)
	return &MenuView{
		Categories: mapper.CategoryFilters(categories),
		Selected:   selected,
		Products:   products,
		Meta:       list.Meta,
	}, nil
}

func (uc *catalogUseCase) Product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := uc.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if p == nil {
		uc.log.Infof("Use Case: Product %s not found", id)
		return nil, nil
	}

	var categories []domain.Category
	if !domain.IsValidCategoryToken(domain.CategoryToken(p.Category)) {
		categories = uc.catalog.ListActiveCategories(ctx)
	}
	vm, err := mapper.ProductFromAPI(*p, categories)
	if err != nil {
		uc.log.Warnf("Use Case: Product %s cannot be displayed: %v", id, err)
		return nil, fmt.Errorf("%w: %w", ErrProductUnavailable, err)
	}
	return &vm, nil
}

func (uc *catalogUseCase) ProductDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	p, err := uc.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if p == nil {
		uc.log.Infof("Use Case: Product %s not found", id)
		return nil, nil
	}

	var candidates []domain.APIProduct
	list, err := uc.catalog.ListProducts(ctx, clients.ProductQuery{Limit: RelatedPageLimit})
	if err != nil {
		uc.log.Warnf("Use Case: Related products for %s unavailable: %v", id, err)
	} else {
		for _, rp := range list.Products {
			if rp.ID != p.ID && rp.ID != id {
				candidates = append(candidates, rp)
			}
		}
	}

	var categories []domain.Category
	if needsCategories(*p, candidates) {
		categories = uc.catalog.ListActiveCategories(ctx)
	}
	detail, err := mapper.ProductDetailFromAPI(*p, categories)
	if err != nil {
		uc.log.Warnf("Use Case: Product %s cannot be displayed: %v", id, err)
		return nil, fmt.Errorf("%w: %w", ErrProductUnavailable, err)
	}

	related, dropped := mapper.ProductsFromAPI(candidates, categories)
	for _, d := range dropped {
		uc.log.Warnf("Use Case: Dropped related product: %v", d)
	}
	if len(related) > MaxRelated {
		related = related[:MaxRelated]
	}
	detail.Related = related
	return &detail, nil
}

// needsCategories reports whether any product references its category by
// identifier rather than by token.
func needsCategories(p domain.APIProduct, others []domain.APIProduct) bool {
	if !domain.IsValidCategoryToken(domain.CategoryToken(p.Category)) {
		return true
	}
	for _, o := range others {
		if !domain.IsValidCategoryToken(domain.CategoryToken(o.Category)) {
			return true
		}
	}
	return false
}

func (uc *catalogUseCase) Careers(ctx context.Context, q clients.JobPostQuery) ([]domain.Job, error) {
	posts, err := uc.catalog.ListJobPosts(ctx, q)
	if err != nil {
		uc.log.Warnf("Use Case: Career listing failed: %v", err)
		return nil, fmt.Errorf("list job posts: %w", err)
	}
	return mapper.JobsFromAPI(posts), nil
}

func (uc *catalogUseCase) Job(ctx context.Context, id string) (*domain.Job, error) {
	post, err := uc.catalog.GetJobPost(ctx, id)
	if err != nil {
		if apierror.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job post %s: %w", id, err)
	}
	if post == nil {
		uc.log.Infof("Use Case: Job post %s not found", id)
		return nil, nil
	}
	job := mapper.JobFromAPI(*post)
	return &job, nil
}
