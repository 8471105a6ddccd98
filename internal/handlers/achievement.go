package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gdg-garage/achievement-board/internal/achievements"
	"github.com/gdg-garage/achievement-board/internal/auth"
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const listPath = "/achievements"

type AchievementHandler struct {
	svc    *achievements.Service
	views  *views
	logger *zap.Logger
}

func NewAchievementHandler(svc *achievements.Service, logger *zap.Logger) *AchievementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AchievementHandler{svc: svc, views: newViews(logger), logger: logger}
}

func (h *AchievementHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPublic(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.render(w, r, http.StatusOK, "index", &viewData{Title: "Achievements", Achievements: list})
}

func (h *AchievementHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id, ok := achievementID(r)
	if !ok {
		h.views.notFound(w, r)
		return
	}

	shown, err := h.svc.Show(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.views.render(w, r, http.StatusOK, "show", &viewData{
		Title:           shown.Achievement.Title,
		Achievement:     shown.Achievement,
		DescriptionHTML: shown.DescriptionHTML,
		CanModify:       achievements.CanModify(auth.UserFrom(r.Context()), shown.Achievement),
	})
}

func (h *AchievementHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.New(auth.UserFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "new", a, nil)
}

func (h *AchievementHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decode(w, r)
	if !ok {
		return
	}
	defer form.Close()

	created, err := h.svc.Create(r.Context(), auth.UserFrom(r.Context()), form.input)
	if errors.Is(err, achievements.ErrValidation) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "new", created.Achievement, achievements.FieldErrorsOf(err))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	msg := "Achievement has been created"
	if created.PostURL != "" {
		msg += fmt.Sprintf(". Posted achievement! at %s", created.PostURL)
	}
	setFlash(w, msg)
	http.Redirect(w, r, showPath(created.Achievement.ID), http.StatusSeeOther)
}

func (h *AchievementHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := achievementID(r)
	if !ok {
		h.views.notFound(w, r)
		return
	}

	a, err := h.svc.Edit(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "edit", a, nil)
}

func (h *AchievementHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := achievementID(r)
	if !ok {
		h.views.notFound(w, r)
		return
	}

	form, ok := h.decode(w, r)
	if !ok {
		return
	}
	defer form.Close()

	a, err := h.svc.Update(r.Context(), auth.UserFrom(r.Context()), id, form.input)
	if errors.Is(err, achievements.ErrValidation) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "edit", a, achievements.FieldErrorsOf(err))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, showPath(a.ID), http.StatusSeeOther)
}

func (h *AchievementHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := achievementID(r)
	if !ok {
		h.views.notFound(w, r)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *AchievementHandler) decode(w http.ResponseWriter, r *http.Request) (*achievementForm, bool) {
	form, err := decodeAchievementForm(r)
	if err == nil {
		return form, true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, errUnknownField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Info("malformed form", zap.Error(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
	}
	return nil, false
}

func (h *AchievementHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, page string, a *models.Achievement, fieldErrors achievements.FieldErrors) {
	data := &viewData{
		Achievement: a,
		Errors:      fieldErrors,
		Privacies:   models.Privacies,
	}
	if page == "new" {
		data.Title = "New Achievement"
		data.FormAction = listPath
		data.FormMethod = http.MethodPost
		data.Submit = "Create Achievement"
	} else {
		data.Title = "Edit Achievement"
		data.FormAction = showPath(a.ID)
		data.FormMethod = http.MethodPut
		data.Submit = "Update Achievement"
	}
	h.views.render(w, r, status, page, data)
}

// fail maps service errors onto browser responses. Forbidden deliberately
// looks like a plain redirect to the list.
func (h *AchievementHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, achievements.ErrUnauthenticated):
		http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
	case errors.Is(err, achievements.ErrForbidden):
		http.Redirect(w, r, listPath, http.StatusSeeOther)
	case errors.Is(err, achievements.ErrNotFound):
		h.views.notFound(w, r)
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func achievementID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func showPath(id uint) string {
	return fmt.Sprintf("%s/%d", listPath, id)
}
