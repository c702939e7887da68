package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type MiddlewareTestSuite struct {
	suite.Suite
	router *gin.Engine
	tokens *Manager
	mw     *Middleware
}

func (s *MiddlewareTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	tokens, err := New("test-secret")
	s.Require().NoError(err)
	s.tokens = tokens
	s.mw = NewMiddleware(tokens, "", false, true)

	s.router = gin.New()
	protected := s.router.Group("/", s.mw.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		s.True(ok)
		c.JSON(http.StatusOK, identity)
	})
	protected.GET("/records/:userId", s.mw.RequireOwner("userId"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func (s *MiddlewareTestSuite) do(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *MiddlewareTestSuite) TestRequireAuth_NoToken() {
	w := s.do("/me", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "authentication required")
}

func (s *MiddlewareTestSuite) TestRequireAuth_InvalidToken() {
	w := s.do("/me", "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *MiddlewareTestSuite) TestRequireAuth_ValidToken() {
	token, err := s.tokens.IssueToken(7, "carol")
	s.Require().NoError(err)

	w := s.do("/me", token)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"userId":7,"username":"carol"}`, w.Body.String())
}

func (s *MiddlewareTestSuite) TestRequireAuth_Cookie() {
	token, err := s.tokens.IssueToken(7, "carol")
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *MiddlewareTestSuite) TestRequireOwner() {
	token, err := s.tokens.IssueToken(7, "carol")
	s.Require().NoError(err)

	s.Equal(http.StatusNoContent, s.do("/records/7", token).Code)
	s.Equal(http.StatusForbidden, s.do("/records/8", token).Code)
	s.Equal(http.StatusBadRequest, s.do("/records/abc", token).Code)
	s.Equal(http.StatusUnauthorized, s.do("/records/7", "").Code)
}

func (s *MiddlewareTestSuite) TestRequireOwner_NotEnforced() {
	mw := NewMiddleware(s.tokens, "", false, false)
	router := gin.New()
	router.GET("/records/:userId", mw.RequireAuth(), mw.RequireOwner("userId"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, err := s.tokens.IssueToken(7, "carol")
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodGet, "/records/8", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)
}

func TestMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}
