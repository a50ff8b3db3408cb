package views

import (
	"net/url"
	"strconv"

	"github.com/eringen/blogfront/domain"
)

// Site holds site-wide settings. Every page gets it so nothing is hardcoded.
type Site struct {
	Name        string
	URL         string
	Description string
}

// Flash is a dismissible notification shown once.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// Page is what the layout needs: site, signed-in user, CSRF token and the
// pending notifications.
type Page struct {
	Site    Site
	Title   string
	User    *domain.User
	CSRF    string
	Flashes []Flash
}

// Listing is one rendered page of the home view.
type Listing struct {
	Posts      []domain.BlogPost
	Search     string
	Page       int
	TotalPages int
	Window     []int
	Offline    bool
}

func (l Listing) HasPrev() bool { return l.Page > 1 }
func (l Listing) HasNext() bool { return l.Page < l.TotalPages }
func (l Listing) PrevPage() int { return l.Page - 1 }
func (l Listing) NextPage() int { return l.Page + 1 }

// PageURL links to page p of the current search.
func (l Listing) PageURL(p int) string {
	q := url.Values{}
	if p > 1 {
		q.Set("page", strconv.Itoa(p))
	}
	if l.Search != "" {
		q.Set("search", l.Search)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// PostForm backs both the create and the edit form. On a failed submit the
// handler re-renders it with the user's input so nothing is lost.
type PostForm struct {
	Heading  string
	Action   string
	Submit   string
	Title    string
	Content  string
	ImageURL string
	IsEdit   bool
	Errors   map[string]string
}

// Detail is the post detail view.
type Detail struct {
	Post    domain.BlogPost
	CanEdit bool
}
