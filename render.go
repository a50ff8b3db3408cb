package blogfront

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// page collects what the layout needs. Pending notifications are consumed,
// so call it once per rendered page.
func (a *App) page(c echo.Context, title string) views.Page {
	p := views.Page{
		Site:  views.Site{Name: a.Config.Name, URL: a.Config.URL, Description: a.Config.Description},
		Title: title,
		CSRF:  CsrfToken(c),
	}
	if v := visitOf(c); v != nil {
		p.User = v.Session.User()
		p.Flashes = v.takeFlashes()
	}
	return p
}

// redirect navigates to one of the front-end routes after a form post.
func redirect(c echo.Context, r domain.Route) error {
	return c.Redirect(http.StatusSeeOther, string(r))
}
