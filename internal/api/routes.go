package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/api/handler"
	"github.com/neurodash/neurodash/internal/metrics"
)

// route is one entry of the route table.
type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// knownMethods are answered with 405 on paths that do not serve them.
var knownMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

func (s *Server) routes() []route {
	h := handler.New(s.engine, s.auth, s.cfg)
	authed := s.auth.RequireAuth()
	owner := s.auth.RequireOwner("userId")

	r := func(method, path string, handlers ...gin.HandlerFunc) route {
		return route{method: method, path: path, handlers: handlers}
	}

	return []route{
		r(http.MethodGet, "/healthz", s.healthz),
		r(http.MethodGet, "/metrics", gin.WrapH(metrics.Handler())),

		r(http.MethodPost, "/api/auth/login", h.Login),
		r(http.MethodPost, "/api/auth/logout", h.Logout),
		r(http.MethodGet, "/api/auth/me", authed, h.Me),

		r(http.MethodGet, "/api/health-metrics/:userId", authed, owner, h.ListMetrics),
		r(http.MethodPost, "/api/health-metrics", authed, h.CreateMetric),

		r(http.MethodGet, "/api/dream-analysis/:userId", authed, owner, h.ListDreams),
		r(http.MethodPost, "/api/dream-analysis", authed, h.CreateDream),

		r(http.MethodGet, "/api/ai-chat/:userId", authed, owner, h.ListChat),
		r(http.MethodPost, "/api/ai-chat", authed, h.SendChat),

		r(http.MethodGet, "/api/settings/:userId", authed, owner, h.GetSettings),
		r(http.MethodPost, "/api/settings/:userId", authed, owner, h.UpdateSettings),

		r(http.MethodGet, "/api/export/:userId", authed, owner, h.Export),
		r(http.MethodGet, "/api/dashboard/:userId", authed, owner, h.Dashboard),
		r(http.MethodGet, "/api/signals", authed, h.Signals),
		r(http.MethodPost, "/api/mood-analysis", authed, h.AnalyzeMood),
	}
}

// setupRoutes registers the route table and answers every other known method on a
// registered path with 405 and an Allow header.
func (s *Server) setupRoutes() {
	allowed := make(map[string][]string)
	var paths []string

	for _, rt := range s.routes() {
		s.ginEngine.Handle(rt.method, rt.path, rt.handlers...)
		if _, ok := allowed[rt.path]; !ok {
			paths = append(paths, rt.path)
		}
		allowed[rt.path] = append(allowed[rt.path], rt.method)
	}

	for _, path := range paths {
		methods := allowed[path]
		allow := strings.Join(methods, ", ")
		for _, method := range knownMethods {
			if slices.Contains(methods, method) {
				continue
			}
			s.ginEngine.Handle(method, path, methodNotAllowed(allow))
		}
	}

	s.ginEngine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "not found",
		})
	})
}

func methodNotAllowed(allow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", allow)
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			"success": false,
			"error":   "method not allowed",
		})
	}
}
