package handlers

import (
	"net/http"

	"bambite_gateway/internal/clients"
	"bambite_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	menuBackLink     = "/menu"
	careerBackLink   = "/career"
	notFoundRedirect = 2000
)

type CatalogHandler struct {
	catalog usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewCatalogHandler(catalog usecase.CatalogUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: logger}
}

func (h *CatalogHandler) Menu(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "Menu")
	view, err := h.catalog.Menu(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", view)
}

func (h *CatalogHandler) Product(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "Product", "product_id": c.Param("id")})
	product, err := h.catalog.ProductDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	if product == nil {
		writeNotFound(c, "Product not found", menuBackLink, 0)
		return
	}
	SuccessResponse(c, http.StatusOK, "", product)
}

func (h *CatalogHandler) Careers(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "Careers")
	jobs, err := h.catalog.Careers(c.Request.Context(), clients.JobPostQuery{
		PlaceTagID: c.Query("placeTagId"),
		Search:     c.Query("search"),
	})
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", jobs)
}

func (h *CatalogHandler) Job(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "Job", "job_id": c.Param("id")})
	job, err := h.catalog.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	if job == nil {
		writeNotFound(c, "Job post not found", careerBackLink, notFoundRedirect)
		return
	}
	SuccessResponse(c, http.StatusOK, "", job)
}
