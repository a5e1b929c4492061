package handlers

import (
	"net/http"
	"net/http/httputil"

	"bambite_gateway/internal/cart"
	"bambite_gateway/internal/forms"
	"bambite_gateway/internal/middleware"
	"bambite_gateway/internal/proxy"
	"bambite_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Catalog       usecase.CatalogUseCase
	Forms         *forms.Registry
	Carts         *cart.Registry
	Proxy         *httputil.ReverseProxy
	Metrics       http.Handler
	Observer      middleware.RequestObserver
	SecureCookies bool
	Log           *logrus.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(d.Log, d.Observer))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics))
	}
	if d.Proxy != nil {
		router.GET("/api/v1/*path", proxy.ProxyHandler(d.Proxy, d.Log))
	}

	catalogHandler := NewCatalogHandler(d.Catalog, d.Log)
	formHandler := NewFormHandler(d.Forms, d.Catalog, d.Log)
	cartHandler := NewCartHandler(d.Carts, d.Catalog, d.Log)

	api := router.Group("/api")
	api.GET("/menu", catalogHandler.Menu)
	api.GET("/products/:id", catalogHandler.Product)
	api.GET("/careers", catalogHandler.Careers)
	api.GET("/careers/:id", catalogHandler.Job)

	sessioned := api.Group("")
	sessioned.Use(middleware.Session(d.SecureCookies, d.Log))
	{
		sessioned.GET("/contact", formHandler.ContactState)
		sessioned.POST("/contact", formHandler.SubmitContact)

		sessioned.GET("/careers/:id/apply", formHandler.ApplicationState)
		sessioned.POST("/careers/:id/apply", formHandler.SubmitApplication)
		sessioned.POST("/careers/:id/apply/cv", formHandler.SelectCV)

		cartGroup := sessioned.Group("/cart")
		{
			cartGroup.GET("", cartHandler.Get)
			cartGroup.DELETE("", cartHandler.Clear)
			cartGroup.POST("/items", cartHandler.AddItem)
			cartGroup.PATCH("/items/:id", cartHandler.SetQuantity)
			cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
			cartGroup.POST("/open", cartHandler.Open)
			cartGroup.POST("/close", cartHandler.Close)
			cartGroup.POST("/toggle", cartHandler.Toggle)
		}
	}

	return router
}
