package blogfront

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/views"
)

const throttledMessage = "Too many login attempts. Try again later."

func (a *App) handleLoginForm(c echo.Context) error {
	if visitOf(c).Session.IsAuthenticated() {
		return redirect(c, domain.HomeRoute)
	}
	return Render(c, views.Login(a.page(c, "Login"), ""))
}

func (a *App) handleLogin(c echo.Context) error {
	v := visitOf(c)
	ip := c.RealIP()
	creds := domain.LoginCredentials{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
	}
	if !a.limiter.Check(ip) {
		a.Metrics.LoginThrottled.Inc()
		v.Error(throttledMessage)
		return RenderStatus(c, http.StatusTooManyRequests, views.Login(a.page(c, "Login"), creds.Username))
	}
	route, err := v.Session.Login(c.Request().Context(), creds)
	if err != nil {
		a.limiter.Record(ip)
		return RenderStatus(c, http.StatusUnauthorized, views.Login(a.page(c, "Login"), creds.Username))
	}
	a.limiter.Reset(ip)
	return redirect(c, route)
}

func (a *App) handleRegisterForm(c echo.Context) error {
	if visitOf(c).Session.IsAuthenticated() {
		return redirect(c, domain.HomeRoute)
	}
	return Render(c, views.Register(a.page(c, "Register"), ""))
}

func (a *App) handleRegister(c echo.Context) error {
	creds := domain.RegisterCredentials{
		Username:        strings.TrimSpace(c.FormValue("username")),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}
	route, err := visitOf(c).Session.Register(c.Request().Context(), creds)
	if err != nil {
		return RenderStatus(c, http.StatusBadRequest, views.Register(a.page(c, "Register"), creds.Username))
	}
	return redirect(c, route)
}

func (a *App) handleLogout(c echo.Context) error {
	return redirect(c, visitOf(c).Session.Logout(c.Request().Context()))
}
