package blogfront

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/listing"
	"github.com/eringen/blogfront/mutation"
	"github.com/eringen/blogfront/views"
)

// partialHeader is sent by the live search script to get only the listing.
const partialHeader = "X-Partial"

func (a *App) handleHome(c echo.Context) error {
	v := visitOf(c)
	pageNum, _ := strconv.Atoi(c.QueryParam("page"))
	if pageNum < 1 {
		pageNum = 1
	}
	search := strings.TrimSpace(c.QueryParam("search"))

	l := views.Listing{Search: search, Page: pageNum}
	res, err := v.API.ListPosts(c.Request().Context(), domain.ListQuery{
		Page:   pageNum,
		Limit:  a.Config.PageSize,
		Search: search,
	})
	if err == nil {
		l.Posts = res.Items
		l.TotalPages = res.TotalPages
		l.Offline = res.Offline
		if res.Offline {
			a.Metrics.FallbackPages.Inc()
		}
	}
	l.Window = listing.PageWindow(l.Page, l.TotalPages)

	if c.Request().Header.Get(partialHeader) == "posts" {
		return Render(c, views.Posts(l))
	}
	return Render(c, views.Home(a.page(c, ""), l))
}

func (a *App) handlePost(c echo.Context) error {
	id, ok := postID(c)
	if !ok {
		return a.renderNotFound(c)
	}
	v := visitOf(c)
	post, err := v.API.GetPost(c.Request().Context(), id)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return a.renderNotFound(c)
		}
		return redirect(c, domain.HomeRoute)
	}
	return Render(c, views.PostDetail(a.page(c, post.Title), views.Detail{
		Post:    post,
		CanEdit: mutation.CanEdit(v.Session, post),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Feed.Recent(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "posts service unavailable").SetInternal(err)
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Feed.Recent(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "posts service unavailable").SetInternal(err)
	}
	return a.renderRSS(c, posts)
}

type health struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker"`
}

func (a *App) handleHealth(c echo.Context) error {
	h := health{Status: "ok", Breaker: "disabled"}
	if a.fallback != nil {
		h.Breaker = a.fallback.State()
	}
	return c.JSON(http.StatusOK, h)
}

func (a *App) renderNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, views.NotFound(a.page(c, "Post Not Found")))
}

func postID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	var fe *errs.Error
	switch {
	case ok:
		code = he.Code
	case errors.As(err, &fe):
		code = fe.HTTPStatus()
		err = echo.NewHTTPError(code, fe.Message).SetInternal(err)
	}
	if code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	if code >= 500 {
		slog.ErrorContext(c.Request().Context(), "server error", "error", err, "status", code)
		_ = RenderStatus(c, code, views.ServerError(a.page(c, "Error")))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
