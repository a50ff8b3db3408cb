// Package views renders every page of the web front as templ components.
// The markup lives in embedded html/template files: each page is parsed
// together with the shared layout and partials, and wrapped in a
// templ.ComponentFunc so handlers render all pages the same way.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var now = time.Now

var funcs = template.FuncMap{
	"formatDate": FormatDate,
	"timeAgo":    func(t time.Time) string { return TimeAgo(t, now()) },
	"fieldError": FieldError,
}

// shared files are parsed into every page.
var shared = []string{"templates/layout.html", "templates/partials.html"}

var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, shared...))
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template)
	for _, name := range names {
		if isShared(name) {
			continue
		}
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, name))
		out[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return out
}

func isShared(name string) bool {
	for _, s := range shared {
		if s == name {
			return true
		}
	}
	return false
}

// view is the data every page template receives.
type view struct {
	Page Page
	Data any
}

func page(name string, p Page, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, "layout", view{Page: p, Data: data})
	})
}

func partial(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages["home"].ExecuteTemplate(w, name, data)
	})
}

// Home is the listing page.
func Home(p Page, l Listing) templ.Component {
	return page("home", p, l)
}

// Posts renders only the listing (cards and pagination). The live search
// script swaps it into the home page.
func Posts(l Listing) templ.Component {
	return partial("posts", l)
}

// PostDetail shows a single post. Edit and delete controls appear only when
// d.CanEdit is set.
func PostDetail(p Page, d Detail) templ.Component {
	return page("detail", p, d)
}

// Form is the create/edit post form.
func Form(p Page, f PostForm) templ.Component {
	return page("form", p, f)
}

// ConfirmDelete asks before a post is deleted.
func ConfirmDelete(p Page, d Detail) templ.Component {
	return page("confirm_delete", p, d)
}

// Login is the sign-in form; username is echoed back after a failure.
func Login(p Page, username string) templ.Component {
	return page("login", p, username)
}

// Register is the sign-up form.
func Register(p Page, username string) templ.Component {
	return page("register", p, username)
}

func NotAuthorized(p Page) templ.Component {
	return page("not_authorized", p, nil)
}

func NotFound(p Page) templ.Component {
	return page("not_found", p, nil)
}

func ServerError(p Page) templ.Component {
	return page("server_error", p, nil)
}
