// Package mutation implements the create, update and delete flows for
// posts. Each flow is one request/response cycle gated by the session's
// identity; on success it returns the route to navigate to.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/gateway"
)

// ErrCancelled is returned by Delete when the user declines to confirm.
var ErrCancelled = errors.New("mutation: cancelled by user")

// Posts is the part of the gateway the flows need. Errors it returns are
// assumed to be reported already (see gateway.Reported).
type Posts interface {
	GetPost(ctx context.Context, id int64) (domain.BlogPost, error)
	CreatePost(ctx context.Context, token string, in gateway.PostInput) (domain.BlogPost, error)
	UpdatePost(ctx context.Context, token string, id int64, in gateway.PostInput) (domain.BlogPost, error)
	DeletePost(ctx context.Context, token string, id int64) error
}

// Identity is the signed-in user. *session.Session implements it.
type Identity interface {
	Token() string
	User() *domain.User
	IsAuthenticated() bool
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer whose answer is already known, e.g. from a
// submitted confirmation form or a --yes flag.
type Confirmed bool

func (c Confirmed) Confirm(context.Context, string) (bool, error) {
	return bool(c), nil
}

// Draft is what the post form collects.
type Draft struct {
	Title       string
	Content     string
	Image       *gateway.Attachment
	RemoveImage bool
}

// Option configures Flows.
type Option func(*Flows)

// OnMutate registers a hook run after every successful create, update or
// delete, e.g. to drop cached feeds.
func OnMutate(fn func(id int64)) Option {
	return func(f *Flows) { f.onMutate = fn }
}

// Flows binds the mutation flows to one API and one identity.
type Flows struct {
	api      Posts
	id       Identity
	notifier domain.Notifier
	onMutate func(id int64)
}

// New returns Flows for the given identity.
func New(api Posts, id Identity, n domain.Notifier, opts ...Option) *Flows {
	if n == nil {
		n = domain.DiscardNotifier{}
	}
	f := &Flows{api: api, id: id, notifier: n}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CanEdit reports whether the identity may edit or delete p. Views use it
// to decide whether to show the controls.
func CanEdit(id Identity, p domain.BlogPost) bool {
	if id == nil || !id.IsAuthenticated() {
		return false
	}
	u := id.User()
	return u != nil && u.ID == p.AuthorID
}

// Create submits a new post and returns it with its detail route.
func (f *Flows) Create(ctx context.Context, d Draft) (domain.BlogPost, domain.Route, error) {
	const op = "create post"
	if err := f.requireLogin(op, "You must be logged in to create a post"); err != nil {
		return domain.BlogPost{}, "", err
	}
	if err := f.validate(op, d); err != nil {
		return domain.BlogPost{}, "", err
	}
	p, err := f.api.CreatePost(ctx, f.id.Token(), d.input(false))
	if err != nil {
		return domain.BlogPost{}, "", err
	}
	f.notifier.Success("Post created successfully!")
	f.mutated(p.ID)
	return p, domain.PostRoute(p.ID), nil
}

// LoadForEdit fetches a post for the edit form. An anonymous caller gets an
// Auth error, a non-owner an Authorization error; neither is reported, the
// caller renders the outcome.
func (f *Flows) LoadForEdit(ctx context.Context, id int64) (domain.BlogPost, error) {
	const op = "edit post"
	if !f.id.IsAuthenticated() {
		return domain.BlogPost{}, errs.Auth(op, "You must be logged in to edit a post")
	}
	p, err := f.api.GetPost(ctx, id)
	if err != nil {
		return domain.BlogPost{}, err
	}
	if !CanEdit(f.id, p) {
		return p, errs.Authorization(op, "You don't have permission to edit this post.")
	}
	return p, nil
}

// Update replaces a post the identity owns and returns its detail route.
func (f *Flows) Update(ctx context.Context, id int64, d Draft) (domain.BlogPost, domain.Route, error) {
	const op = "update post"
	if err := f.requireLogin(op, "You must be logged in to update a post"); err != nil {
		return domain.BlogPost{}, "", err
	}
	if err := f.validate(op, d); err != nil {
		return domain.BlogPost{}, "", err
	}
	if _, err := f.owned(ctx, op, id, "You don't have permission to edit this post."); err != nil {
		return domain.BlogPost{}, "", err
	}
	p, err := f.api.UpdatePost(ctx, f.id.Token(), id, d.input(d.RemoveImage))
	if err != nil {
		return domain.BlogPost{}, "", err
	}
	f.notifier.Success("Post updated successfully!")
	f.mutated(id)
	return p, domain.PostRoute(id), nil
}

// Delete removes a post the identity owns after c approves. Declining
// returns ErrCancelled without any request being made.
func (f *Flows) Delete(ctx context.Context, id int64, c Confirmer) (domain.Route, error) {
	const op = "delete post"
	if err := f.requireLogin(op, "You must be logged in to delete a post"); err != nil {
		return "", err
	}
	p, err := f.owned(ctx, op, id, "You don't have permission to delete this post.")
	if err != nil {
		return "", err
	}
	ok, err := c.Confirm(ctx, fmt.Sprintf("Delete %q? This action cannot be undone.", p.Title))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}
	if err := f.api.DeletePost(ctx, f.id.Token(), id); err != nil {
		return "", err
	}
	f.notifier.Success("Post deleted successfully")
	f.mutated(id)
	return domain.HomeRoute, nil
}

func (f *Flows) requireLogin(op, msg string) error {
	if f.id.IsAuthenticated() {
		return nil
	}
	err := errs.Auth(op, msg)
	f.notifier.Error(err.Message)
	return err
}

func (f *Flows) validate(op string, d Draft) error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) == 0 {
		return nil
	}
	err := errs.Validation(op, "Missing required field: "+strings.Join(missing, ", "))
	f.notifier.Error(err.Message)
	return err
}

// owned loads the current copy of the post and checks its author.
func (f *Flows) owned(ctx context.Context, op string, id int64, msg string) (domain.BlogPost, error) {
	p, err := f.api.GetPost(ctx, id)
	if err != nil {
		return domain.BlogPost{}, err
	}
	if !CanEdit(f.id, p) {
		err := errs.Authorization(op, msg)
		f.notifier.Error(err.Message)
		return domain.BlogPost{}, err
	}
	return p, nil
}

func (f *Flows) mutated(id int64) {
	if f.onMutate != nil {
		f.onMutate(id)
	}
}

func (d Draft) input(removeImage bool) gateway.PostInput {
	return gateway.PostInput{
		Title:       strings.TrimSpace(d.Title),
		Content:     d.Content,
		Image:       d.Image,
		RemoveImage: removeImage && d.Image == nil,
	}
}
