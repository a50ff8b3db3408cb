package session

import (
	"context"

	"github.com/gorilla/sessions"
)

// CookieStorage keeps the persisted keys in a gorilla session, i.e. in the
// browser's signed cookie. Writes only touch the in-memory values; the owner
// of the request must Save the gorilla session before responding.
type CookieStorage struct {
	sess  *sessions.Session
	dirty bool
}

// NewCookieStorage wraps a gorilla session obtained for the current request.
func NewCookieStorage(sess *sessions.Session) *CookieStorage {
	return &CookieStorage{sess: sess}
}

func (c *CookieStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.sess.Values[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (c *CookieStorage) SetAll(_ context.Context, values map[string]string) error {
	for k, v := range values {
		c.sess.Values[k] = v
	}
	c.dirty = true
	return nil
}

func (c *CookieStorage) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if _, ok := c.sess.Values[k]; ok {
			delete(c.sess.Values, k)
			c.dirty = true
		}
	}
	return nil
}

// Dirty reports whether the cookie needs to be re-sent.
func (c *CookieStorage) Dirty() bool {
	return c.dirty
}
