// Package domain holds the data model shared by the gateway, the session
// store, the listing controller, and the views: users, posts, pages of posts
// and the routes the front-end navigates between.
package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// User is issued by the auth service and never modified by the front-end.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt Timestamp `json:"created_at"`
}

// BlogPost is a post as returned by the posts service.
type BlogPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
	ImageURL  string    `json:"image_url,omitempty"`
}

// IsUpdated reports whether the post was edited after creation. Equal
// timestamps count as "created" only.
func (p BlogPost) IsUpdated() bool {
	return p.UpdatedAt.After(p.CreatedAt.Time)
}

// HasImage reports whether the post carries an image attachment.
func (p BlogPost) HasImage() bool {
	return strings.TrimSpace(p.ImageURL) != ""
}

const excerptLength = 150

var reTags = regexp.MustCompile(`<[^>]*>`)

// Excerpt returns the first 150 characters of the content with HTML tags
// removed, followed by "..." when the content was longer.
func (p BlogPost) Excerpt() string {
	plain := []rune(reTags.ReplaceAllString(p.Content, ""))
	if len(plain) > excerptLength {
		plain = plain[:excerptLength]
	}
	out := string(plain)
	if len([]rune(p.Content)) > excerptLength {
		out += "..."
	}
	return out
}

// Paragraphs splits the content on newlines, one entry per paragraph.
func (p BlogPost) Paragraphs() []string {
	return strings.Split(p.Content, "\n")
}

// PaginatedResponse is the envelope the posts service returns for paginated
// listings.
type PaginatedResponse struct {
	Items []BlogPost `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Pages int        `json:"pages"`
}

// PostPage is the normalized listing result every post source produces,
// whatever shape the server answered with.
type PostPage struct {
	Items      []BlogPost
	Total      int
	Page       int
	TotalPages int
	// Offline is set when the page came from the stand-in dataset.
	Offline bool
}

// ListQuery selects a page of posts. Zero values mean "server default".
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// DefaultPageSize is the number of posts per listing page.
const DefaultPageSize = 6

// LoginCredentials are sent to the auth service to obtain a token.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterCredentials carries the confirmation field checked client-side.
type RegisterCredentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// LoginResult is the auth service's answer to a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Route is a navigation target inside the front-end.
type Route string

const (
	HomeRoute     Route = "/"
	LoginRoute    Route = "/login"
	RegisterRoute Route = "/register"
	CreateRoute   Route = "/create"
)

// PostRoute is the detail view of a post.
func PostRoute(id int64) Route {
	return Route("/post/" + strconv.FormatInt(id, 10))
}

// EditRoute is the edit form of a post.
func EditRoute(id int64) Route {
	return Route("/edit/" + strconv.FormatInt(id, 10))
}
