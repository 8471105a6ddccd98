package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gdg-garage/achievement-board/internal/achievements"
	"github.com/gdg-garage/achievement-board/internal/auth"
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const flashCookie = "flash"

var pages = []string{"index", "show", "new", "edit", "not_found"}

type viewData struct {
	Title     string
	User      *models.User
	Flash     string
	CSRFField template.HTML

	Achievements    []models.Achievement
	Achievement     *models.Achievement
	DescriptionHTML template.HTML
	CanModify       bool

	Errors     achievements.FieldErrors
	Privacies  []models.Privacy
	FormAction string
	FormMethod string
	Submit     string
}

type views struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

func newViews(logger *zap.Logger) *views {
	v := &views{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, page := range pages {
		v.pages[page] = template.Must(template.New(page).ParseFS(templateFS,
			"templates/layout.html",
			"templates/form.html",
			"templates/"+page+".html",
		))
	}
	return v
}

// render writes page with status. It fills in the per-request fields and
// consumes any pending flash message.
func (v *views) render(w http.ResponseWriter, r *http.Request, status int, page string, data *viewData) {
	data.User = auth.UserFrom(r.Context())
	data.CSRFField = csrf.TemplateField(r)
	data.Flash = takeFlash(w, r)

	var buf bytes.Buffer
	if err := v.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Error("failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (v *views) notFound(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusNotFound, "not_found", &viewData{Title: "Not found"})
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
