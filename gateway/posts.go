package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// Attachment is an image file sent with a post.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PostInput is the multipart payload of create and update.
type PostInput struct {
	Title       string
	Content     string
	Image       *Attachment
	RemoveImage bool
}

// ListPosts fetches one page of posts. Query parameters are only sent for
// non-default values.
func (c *Client) ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error) {
	const op, msg = "list posts", "Failed to fetch posts"
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	path := "/posts/"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.PostPage{}, errs.Network(op, msg, err)
	}
	body, err := c.do(op, msg, req)
	if err != nil {
		return domain.PostPage{}, err
	}
	listing, err := decodeListing(body)
	if err != nil {
		return domain.PostPage{}, errs.Wrap(errs.KindUpstream, op, msg, err)
	}
	return listing.normalize(), nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (domain.BlogPost, error) {
	const op, msg = "fetch post", "Failed to fetch post"
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil)
	if err != nil {
		return domain.BlogPost{}, errs.Network(op, msg, err)
	}
	body, err := c.do(op, msg, req)
	if err != nil {
		return domain.BlogPost{}, err
	}
	return decodePost(op, msg, body)
}

// CreatePost submits a new post on behalf of the token's owner.
func (c *Client) CreatePost(ctx context.Context, token string, in PostInput) (domain.BlogPost, error) {
	const op, msg = "create post", "Failed to create post"
	if token == "" {
		return domain.BlogPost{}, errs.Auth(op, "You must be logged in to create a post")
	}
	in.RemoveImage = false
	body, err := c.sendMultipart(ctx, op, msg, http.MethodPost, "/posts/", token, in)
	if err != nil {
		return domain.BlogPost{}, err
	}
	return decodePost(op, msg, body)
}

// UpdatePost replaces title and content, and optionally the image.
func (c *Client) UpdatePost(ctx context.Context, token string, id int64, in PostInput) (domain.BlogPost, error) {
	const op, msg = "update post", "Failed to update post"
	if token == "" {
		return domain.BlogPost{}, errs.Auth(op, "You must be logged in to update a post")
	}
	body, err := c.sendMultipart(ctx, op, msg, http.MethodPut, fmt.Sprintf("/posts/%d", id), token, in)
	if err != nil {
		return domain.BlogPost{}, err
	}
	return decodePost(op, msg, body)
}

// DeletePost removes a post. Any 2xx answer is success; the body is ignored.
func (c *Client) DeletePost(ctx context.Context, token string, id int64) error {
	const op, msg = "delete post", "Failed to delete post"
	if token == "" {
		return errs.Auth(op, "You must be logged in to delete a post")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil)
	if err != nil {
		return errs.Network(op, msg, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = c.do(op, msg, req)
	return err
}

func (c *Client) sendMultipart(ctx context.Context, op, msg, method, path, token string, in PostInput) ([]byte, error) {
	payload, contentType, err := encodePostInput(in)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, op, msg, err)
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, errs.Network(op, msg, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(op, msg, req)
}

func encodePostInput(in PostInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("title", in.Title); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("content", in.Content); err != nil {
		return nil, "", err
	}
	if in.Image != nil && len(in.Image.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, in.Image.Filename))
		ct := in.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(in.Image.Data); err != nil {
			return nil, "", err
		}
	} else if in.RemoveImage {
		if err := w.WriteField("remove_image", "true"); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func decodePost(op, msg string, body []byte) (domain.BlogPost, error) {
	var p domain.BlogPost
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.BlogPost{}, errs.Wrap(errs.KindUpstream, op, msg, err)
	}
	return p, nil
}
