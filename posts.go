package blogfront

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/mutation"
	"github.com/eringen/blogfront/views"
)

func createForm() views.PostForm {
	return views.PostForm{Heading: "Create New Post", Action: string(domain.CreateRoute), Submit: "Create Post"}
}

func editForm(p domain.BlogPost) views.PostForm {
	return views.PostForm{
		Heading:  "Edit Post",
		Action:   string(domain.EditRoute(p.ID)),
		Submit:   "Update Post",
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		IsEdit:   true,
	}
}

func (a *App) handleCreateForm(c echo.Context) error {
	if !visitOf(c).Session.IsAuthenticated() {
		return redirect(c, domain.LoginRoute)
	}
	return Render(c, views.Form(a.page(c, "Create Post"), createForm()))
}

func (a *App) handleCreate(c echo.Context) error {
	v := visitOf(c)
	if !v.Session.IsAuthenticated() {
		v.Error("You must be logged in to create a post")
		return redirect(c, domain.LoginRoute)
	}
	f := createForm()
	draft, ok := a.readDraft(c, &f)
	if !ok {
		return RenderStatus(c, http.StatusBadRequest, views.Form(a.page(c, "Create Post"), f))
	}
	_, route, err := v.Flows.Create(c.Request().Context(), draft)
	if err != nil {
		return a.formFailed(c, "Create Post", f, err)
	}
	return redirect(c, route)
}

func (a *App) handleEditForm(c echo.Context) error {
	id, ok := postID(c)
	if !ok {
		return a.renderNotFound(c)
	}
	post, err := visitOf(c).Flows.LoadForEdit(c.Request().Context(), id)
	if err != nil {
		return a.editDenied(c, err)
	}
	return Render(c, views.Form(a.page(c, "Edit Post"), editForm(post)))
}

func (a *App) handleEdit(c echo.Context) error {
	id, ok := postID(c)
	if !ok {
		return a.renderNotFound(c)
	}
	v := visitOf(c)
	if !v.Session.IsAuthenticated() {
		v.Error("You must be logged in to update a post")
		return redirect(c, domain.LoginRoute)
	}
	f := views.PostForm{
		Heading:  "Edit Post",
		Action:   string(domain.EditRoute(id)),
		Submit:   "Update Post",
		ImageURL: c.FormValue("image_url"),
		IsEdit:   true,
	}
	draft, ok := a.readDraft(c, &f)
	if !ok {
		return RenderStatus(c, http.StatusBadRequest, views.Form(a.page(c, "Edit Post"), f))
	}
	_, route, err := v.Flows.Update(c.Request().Context(), id, draft)
	if err != nil {
		if errs.Is(err, errs.KindAuthorization) || errs.Is(err, errs.KindNotFound) {
			return a.editDenied(c, err)
		}
		return a.formFailed(c, "Edit Post", f, err)
	}
	return redirect(c, route)
}

func (a *App) handleDeleteConfirm(c echo.Context) error {
	id, ok := postID(c)
	if !ok {
		return a.renderNotFound(c)
	}
	post, err := visitOf(c).Flows.LoadForEdit(c.Request().Context(), id)
	if err != nil {
		return a.editDenied(c, err)
	}
	return Render(c, views.ConfirmDelete(a.page(c, "Delete Post"), views.Detail{Post: post, CanEdit: true}))
}

func (a *App) handleDelete(c echo.Context) error {
	id, ok := postID(c)
	if !ok {
		return a.renderNotFound(c)
	}
	v := visitOf(c)
	if !v.Session.IsAuthenticated() {
		v.Error("You must be logged in to delete a post")
		return redirect(c, domain.LoginRoute)
	}
	confirmed := mutation.Confirmed(c.FormValue("confirm") == "yes")
	route, err := v.Flows.Delete(c.Request().Context(), id, confirmed)
	switch {
	case err == nil:
		return redirect(c, route)
	case errors.Is(err, mutation.ErrCancelled):
		return redirect(c, domain.PostRoute(id))
	case errs.Is(err, errs.KindAuthorization), errs.Is(err, errs.KindNotFound):
		return a.editDenied(c, err)
	default:
		return redirect(c, domain.PostRoute(id))
	}
}

// readDraft copies the submitted fields into f and reads the image upload.
// A rejected upload is marked on the form and ok is false.
func (a *App) readDraft(c echo.Context, f *views.PostForm) (mutation.Draft, bool) {
	f.Title = c.FormValue("title")
	f.Content = c.FormValue("content")
	draft := mutation.Draft{
		Title:       f.Title,
		Content:     f.Content,
		RemoveImage: c.FormValue("remove_image") == "true",
	}
	img, err := a.formImage(c)
	if err != nil {
		msg := "Invalid image"
		if errors.Is(err, errImageTooLarge) {
			msg = "Image is too large (max " + strconv.FormatInt(a.Config.MaxUploadSize>>20, 10) + "MB)"
		}
		f.Errors = map[string]string{"image": msg}
		visitOf(c).Error(msg)
		return draft, false
	}
	draft.Image = img
	return draft, true
}

// formFailed re-renders the form with the user's input after a failed submit.
// The failure itself was already reported as a notification.
func (a *App) formFailed(c echo.Context, title string, f views.PostForm, err error) error {
	if errs.Is(err, errs.KindValidation) {
		f.Errors = missingFields(f)
	}
	status := http.StatusBadGateway
	var fe *errs.Error
	if errors.As(err, &fe) {
		status = fe.HTTPStatus()
	}
	return RenderStatus(c, status, views.Form(a.page(c, title), f))
}

func missingFields(f views.PostForm) map[string]string {
	out := map[string]string{}
	if isBlank(f.Title) {
		out["title"] = "Title is required"
	}
	if isBlank(f.Content) {
		out["content"] = "Content is required"
	}
	return out
}

// editDenied renders the outcome of a refused edit or delete: anonymous
// users go to the login page, non-owners see Not Authorized, a missing post
// the 404 page, anything else goes back home.
func (a *App) editDenied(c echo.Context, err error) error {
	switch errs.KindOf(err) {
	case errs.KindAuth:
		return redirect(c, domain.LoginRoute)
	case errs.KindAuthorization:
		return RenderStatus(c, http.StatusForbidden, views.NotAuthorized(a.page(c, "Not Authorized")))
	case errs.KindNotFound:
		return a.renderNotFound(c)
	default:
		return redirect(c, domain.HomeRoute)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
