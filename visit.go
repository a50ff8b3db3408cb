package blogfront

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/blogfront/gateway"
	"github.com/eringen/blogfront/mutation"
	"github.com/eringen/blogfront/session"
	"github.com/eringen/blogfront/views"
)

const (
	sessionName  = "blogfront_session"
	sessionIDKey = "sid"
	visitKey     = "blogfront_visit"
)

// visit is the per-request context of the web front: the browser's session,
// the gateway reporting into flash messages, and the post flows bound to both.
type visit struct {
	raw     *sessions.Session
	cookie  *session.CookieStorage
	changed bool

	Session *session.Session
	API     gateway.API
	Flows   *mutation.Flows
}

func (v *visit) dirty() bool {
	return v.changed || (v.cookie != nil && v.cookie.Dirty())
}

// Success and Error make a visit the notifier of its own request. Messages
// are kept in the cookie until a page displays them.
func (v *visit) Success(msg string) { v.flash("success", msg) }
func (v *visit) Error(msg string)   { v.flash("error", msg) }

func (v *visit) flash(kind, msg string) {
	v.raw.AddFlash(kind + ":" + msg)
	v.changed = true
}

// takeFlashes removes and returns the pending notifications.
func (v *visit) takeFlashes() []views.Flash {
	pending := v.raw.Flashes()
	if len(pending) == 0 {
		return nil
	}
	v.changed = true
	out := make([]views.Flash, 0, len(pending))
	for _, f := range pending {
		s, ok := f.(string)
		if !ok {
			continue
		}
		kind, msg, _ := strings.Cut(s, ":")
		out = append(out, views.Flash{Kind: kind, Message: msg})
	}
	return out
}

// visitMiddleware restores the session of every request and saves the
// cookie right before the response headers go out, if anything changed.
func (a *App) visitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := echosession.Get(sessionName, c)
		if raw == nil {
			return err
		}
		if err != nil {
			slog.WarnContext(c.Request().Context(), "Discarding unreadable session cookie", "error", err)
		}

		v := &visit{raw: raw}
		storage := a.storageFor(v)
		v.API = gateway.Reported(a.api, v)
		v.Session = session.New(storage, v.API, v)
		v.Session.Restore(c.Request().Context())
		v.Flows = mutation.New(v.API, v.Session, v, mutation.OnMutate(func(int64) {
			a.Feed.Invalidate()
		}))
		c.Set(visitKey, v)

		c.Response().Before(func() {
			if !v.dirty() {
				return
			}
			if err := raw.Save(c.Request(), c.Response()); err != nil {
				slog.ErrorContext(c.Request().Context(), "Failed to save session cookie", "error", err)
			}
		})
		return next(c)
	}
}

// storageFor picks where the session keys of v live: in the cookie itself,
// or in Redis under an id kept in the cookie.
func (a *App) storageFor(v *visit) session.Storage {
	if a.redis == nil {
		v.cookie = session.NewCookieStorage(v.raw)
		return v.cookie
	}
	sid, _ := v.raw.Values[sessionIDKey].(string)
	if sid == "" {
		sid = newSessionID()
		v.raw.Values[sessionIDKey] = sid
		v.changed = true
	}
	return session.NewRedisStorage(a.redis, sid, a.Config.SessionMaxAge)
}

func newSessionID() string {
	return uuid.NewString()
}

func visitOf(c echo.Context) *visit {
	v, _ := c.Get(visitKey).(*visit)
	return v
}
