package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gdg-garage/achievement-board/internal/achievements"
	"github.com/gdg-garage/achievement-board/internal/models"
)

const (
	methodField   = "_method"
	csrfFieldName = "gorilla.csrf.Token"
	maxFormMemory = 1 << 20
)

// achievementFields is everything a client may submit for an achievement.
var achievementFields = map[string]bool{
	"title":       true,
	"description": true,
	"privacy":     true,
	"featured":    true,
	"cover_image": true,
}

var errUnknownField = errors.New("unknown form field")

// achievementForm holds a decoded submission and the upload it may carry.
type achievementForm struct {
	input achievements.Input
	file  multipart.File
}

func (f *achievementForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

func decodeAchievementForm(r *http.Request) (*achievementForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	for key := range r.PostForm {
		if key == methodField || key == csrfFieldName {
			continue
		}
		if !achievementFields[key] || key == "cover_image" {
			return nil, fmt.Errorf("%w: %q", errUnknownField, key)
		}
	}
	if r.MultipartForm != nil {
		for key := range r.MultipartForm.File {
			if key != "cover_image" {
				return nil, fmt.Errorf("%w: %q", errUnknownField, key)
			}
		}
	}

	form := &achievementForm{
		input: achievements.Input{
			Title:       r.PostForm.Get("title"),
			Description: r.PostForm.Get("description"),
			Privacy:     models.Privacy(r.PostForm.Get("privacy")),
			Featured:    isChecked(r.PostForm.Get("featured")),
		},
	}

	if r.MultipartForm == nil {
		return form, nil
	}
	file, header, err := r.FormFile("cover_image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Filename == "" && header.Size == 0 {
		_ = file.Close()
		return form, nil
	}

	form.file = file
	form.input.Cover = &achievements.Upload{Filename: header.Filename, Body: file}
	return form, nil
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// MethodOverride lets HTML forms reach PUT, PATCH and DELETE routes through
// a POST carrying a _method field.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch m := strings.ToUpper(r.PostFormValue(methodField)); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
