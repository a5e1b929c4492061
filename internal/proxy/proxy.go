package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// URLResolver maps a browser path such as "/api/v1/products" onto the
// backend without doubling the API prefix.
type URLResolver interface {
	URL(endpoint string) string
}

// NewReverseProxy forwards same-origin /api/v1 reads to the backend.
// Cookies and credentials never leave the gateway.
func NewReverseProxy(resolver URLResolver, rt http.RoundTripper, log *logrus.Logger) *httputil.ReverseProxy {
	proxy := &httputil.ReverseProxy{Transport: rt}

	proxy.Director = func(req *http.Request) {
		originalPath := req.URL.EscapedPath()
		target, err := url.Parse(resolver.URL(originalPath))
		if err != nil {
			log.Errorf("Proxy Director: Cannot resolve '%s': %v", originalPath, err)
			return
		}

		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = target.Path
		req.URL.RawPath = target.RawPath
		req.Host = target.Host

		req.Header.Del("Authorization")
		req.Header.Del("Cookie")
		if _, ok := req.Header["User-Agent"]; !ok {
			req.Header.Set("User-Agent", "")
		}

		log.Debugf("Proxy Director: %s -> %s", originalPath, req.URL.String())
	}

	proxy.ModifyResponse = func(res *http.Response) error {
		res.Header.Del("Set-Cookie")
		return nil
	}

	proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, err error) {
		log.Errorf("Reverse proxy error for path '%s': %v", req.URL.Path, err)
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusBadGateway)
		_, _ = rw.Write([]byte(`{"status":"error","message":"Network error. Please check your connection."}`))
	}

	return proxy
}

func ProxyHandler(p *httputil.ReverseProxy, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Debugf("ProxyHandler: Forwarding %s %s", c.Request.Method, c.Request.URL.Path)
		p.ServeHTTP(c.Writer, c.Request)
	}
}
