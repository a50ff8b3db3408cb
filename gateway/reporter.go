package gateway

import (
	"context"
	"log/slog"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// reported reports each failure exactly once, then hands the error back so
// the calling flow can apply its own recovery.
type reported struct {
	api      API
	notifier domain.Notifier
}

// Reported wraps api so that every failed call is shown to the user through
// n. Callers must not report the returned errors again.
func Reported(api API, n domain.Notifier) API {
	if n == nil {
		n = domain.DiscardNotifier{}
	}
	return &reported{api: api, notifier: n}
}

func (r *reported) report(ctx context.Context, err error) {
	slog.WarnContext(ctx, "API error", "kind", errs.KindOf(err), "error", err)
	r.notifier.Error(errs.Message(err))
}

func (r *reported) ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error) {
	page, err := r.api.ListPosts(ctx, q)
	if err != nil {
		r.report(ctx, err)
	}
	return page, err
}

func (r *reported) Login(ctx context.Context, creds domain.LoginCredentials) (domain.LoginResult, error) {
	res, err := r.api.Login(ctx, creds)
	if err != nil {
		r.report(ctx, err)
	}
	return res, err
}

func (r *reported) Register(ctx context.Context, creds domain.RegisterCredentials) error {
	err := r.api.Register(ctx, creds)
	if err != nil {
		r.report(ctx, err)
	}
	return err
}

func (r *reported) GetPost(ctx context.Context, id int64) (domain.BlogPost, error) {
	p, err := r.api.GetPost(ctx, id)
	if err != nil {
		r.report(ctx, err)
	}
	return p, err
}

func (r *reported) CreatePost(ctx context.Context, token string, in PostInput) (domain.BlogPost, error) {
	p, err := r.api.CreatePost(ctx, token, in)
	if err != nil {
		r.report(ctx, err)
	}
	return p, err
}

func (r *reported) UpdatePost(ctx context.Context, token string, id int64, in PostInput) (domain.BlogPost, error) {
	p, err := r.api.UpdatePost(ctx, token, id, in)
	if err != nil {
		r.report(ctx, err)
	}
	return p, err
}

func (r *reported) DeletePost(ctx context.Context, token string, id int64) error {
	err := r.api.DeletePost(ctx, token, id)
	if err != nil {
		r.report(ctx, err)
	}
	return err
}
