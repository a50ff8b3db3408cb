// Package stubserver is a small implementation of the posts/auth HTTP API
// the front-end consumes. It is used for local development and for
// round-trip tests; it is not meant to be a production backend.
package stubserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/store"
)

const maxImageSize = 10 << 20

// Server serves the API under /api.
type Server struct {
	Echo   *echo.Echo
	store  *store.Store
	legacy bool
}

// Option configures a Server.
type Option func(*Server)

// WithLegacyListing makes GET /api/posts/ answer with a bare array when the
// request carries no page parameter, like older versions of the service.
func WithLegacyListing() Option {
	return func(s *Server) { s.legacy = true }
}

// New builds the echo instance and registers the routes.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{Echo: echo.New(), store: st}
	for _, opt := range opts {
		opt(s)
	}
	e := s.Echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("stub request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/register", s.handleRegister)
	api.GET("/posts/", s.handleListPosts)
	api.GET("/posts/:id", s.handleGetPost)
	api.POST("/posts/", s.handleCreatePost, s.requireToken)
	api.PUT("/posts/:id", s.handleUpdatePost, s.requireToken)
	api.DELETE("/posts/:id", s.handleDeletePost, s.requireToken)
	api.GET("/images/:id", s.handleImage)
	return s
}

// Start listens on addr.
func (s *Server) Start(addr string) error {
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// detail is the error body the service sends.
type detail struct {
	Detail string `json:"detail"`
}

func fail(status int, msg string) error {
	return echo.NewHTTPError(status, msg)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		slog.Error("stub handler failed", "error", err)
	}
	if err := c.JSON(status, detail{Detail: msg}); err != nil {
		slog.Error("stub error response failed", "error", err)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Seed fills an empty database with the demo account (password "demo")
// and a few posts.
func Seed(ctx context.Context, st *store.Store) error {
	hash, err := hashPassword(store.DemoUsername)
	if err != nil {
		return err
	}
	return st.Seed(ctx, hash)
}

const userContextKey = "stub_user"

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return fail(http.StatusUnauthorized, "Not authenticated")
		}
		u, err := s.store.UserByToken(c.Request().Context(), token)
		if errors.Is(err, store.ErrNotFound) {
			return fail(http.StatusUnauthorized, "Could not validate credentials")
		}
		if err != nil {
			return err
		}
		c.Set(userContextKey, u)
		return next(c)
	}
}

func currentUser(c echo.Context) domain.User {
	u, _ := c.Get(userContextKey).(domain.User)
	return u
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fail(http.StatusNotFound, "Post not found")
	}
	return id, nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var creds domain.LoginCredentials
	if err := c.Bind(&creds); err != nil {
		return fail(http.StatusUnprocessableEntity, "Invalid request body")
	}
	ctx := c.Request().Context()
	u, hash, err := s.store.UserByUsername(ctx, creds.Username)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !checkPassword(hash, creds.Password)) {
		return fail(http.StatusUnauthorized, "Incorrect username or password")
	}
	if err != nil {
		return err
	}
	token, err := generateToken()
	if err != nil {
		return err
	}
	if err := s.store.SaveToken(ctx, token, u.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.LoginResult{AccessToken: token, User: u})
}

func (s *Server) handleRegister(c echo.Context) error {
	var creds domain.LoginCredentials
	if err := c.Bind(&creds); err != nil {
		return fail(http.StatusUnprocessableEntity, "Invalid request body")
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return fail(http.StatusUnprocessableEntity, "Username and password are required")
	}
	hash, err := hashPassword(creds.Password)
	if err != nil {
		return err
	}
	u, err := s.store.CreateUser(c.Request().Context(), creds.Username, hash)
	if errors.Is(err, store.ErrConflict) {
		return fail(http.StatusBadRequest, "Username already registered")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) handleListPosts(c echo.Context) error {
	q := domain.ListQuery{Search: c.QueryParam("search")}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	if s.legacy && c.QueryParam("page") == "" {
		q.Limit = 1000
		page, err := s.store.ListPosts(c.Request().Context(), q)
		if err != nil {
			return err
		}
		items := page.Items
		if items == nil {
			items = []domain.BlogPost{}
		}
		return c.JSON(http.StatusOK, items)
	}

	page, err := s.store.ListPosts(c.Request().Context(), q)
	if err != nil {
		return err
	}
	size := q.Limit
	if size < 1 {
		size = domain.DefaultPageSize
	}
	items := page.Items
	if items == nil {
		items = []domain.BlogPost{}
	}
	return c.JSON(http.StatusOK, domain.PaginatedResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Size:  size,
		Pages: page.TotalPages,
	})
}

func (s *Server) handleGetPost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := s.store.GetPost(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	title, content := strings.TrimSpace(c.FormValue("title")), c.FormValue("content")
	if title == "" || strings.TrimSpace(content) == "" {
		return fail(http.StatusUnprocessableEntity, "Title and content are required")
	}
	imageURL, err := s.saveUpload(c)
	if err != nil {
		return err
	}
	p, err := s.store.CreatePost(c.Request().Context(), currentUser(c).ID, title, content, imageURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	current, err := s.store.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return err
	}
	if current.AuthorID != currentUser(c).ID {
		return fail(http.StatusForbidden, "Not enough permissions")
	}
	title, content := strings.TrimSpace(c.FormValue("title")), c.FormValue("content")
	if title == "" || strings.TrimSpace(content) == "" {
		return fail(http.StatusUnprocessableEntity, "Title and content are required")
	}

	imageURL := current.ImageURL
	uploaded, err := s.saveUpload(c)
	if err != nil {
		return err
	}
	switch {
	case uploaded != "":
		imageURL = uploaded
	case c.FormValue("remove_image") == "true":
		imageURL = ""
	}
	p, err := s.store.UpdatePost(ctx, id, title, content, imageURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	current, err := s.store.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return err
	}
	if current.AuthorID != currentUser(c).ID {
		return fail(http.StatusForbidden, "Not enough permissions")
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// saveUpload stores the optional "image" part and returns its URL, or ""
// when none was sent.
func (s *Server) saveUpload(c echo.Context) (string, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fail(http.StatusBadRequest, "Invalid image upload")
	}
	if fh.Size > maxImageSize {
		return "", fail(http.StatusRequestEntityTooLarge, "Image too large")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return "", err
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
		if !strings.HasPrefix(ct, "image/") {
			return "", fail(http.StatusBadRequest, "Uploaded file is not an image")
		}
	}
	id, err := s.store.SaveImage(c.Request().Context(), ct, data)
	if err != nil {
		return "", err
	}
	return c.Scheme() + "://" + c.Request().Host + "/api/images/" + strconv.FormatInt(id, 10), nil
}

func (s *Server) handleImage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(http.StatusNotFound, "Image not found")
	}
	ct, data, err := s.store.Image(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, "Image not found")
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, ct, data)
}
