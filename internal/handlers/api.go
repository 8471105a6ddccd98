package handlers

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/achievement-board/internal/achievements"
	"github.com/gdg-garage/achievement-board/internal/models"
)

const achievementsType = "achievements"

type APIHandler struct {
	svc *achievements.Service
}

func NewAPIHandler(svc *achievements.Service) *APIHandler {
	return &APIHandler{svc: svc}
}

type AchievementAttributes struct {
	Title       string `json:"title" doc:"Title of the achievement"`
	Description string `json:"description" doc:"Markdown source of the description"`
	Privacy     string `json:"privacy" enum:"public" doc:"Privacy level; only public achievements are listed"`
	Featured    bool   `json:"featured"`
	CoverImage  string `json:"cover_image,omitempty" doc:"Path of the cover image"`
}

type AchievementResource struct {
	Type       string                `json:"type" enum:"achievements"`
	ID         string                `json:"id"`
	Attributes AchievementAttributes `json:"attributes"`
}

type ListAchievementsOutput struct {
	Body struct {
		Data []AchievementResource `json:"data"`
	}
}

func (h *APIHandler) HandleList(ctx context.Context, input *struct{}) (*ListAchievementsOutput, error) {
	list, err := h.svc.ListPublic(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list achievements")
	}

	res := &ListAchievementsOutput{}
	res.Body.Data = ProjectPublic(list)
	return res, nil
}

// ProjectPublic converts achievements into API resources, dropping any that
// an anonymous visitor may not see.
func ProjectPublic(list []models.Achievement) []AchievementResource {
	data := make([]AchievementResource, 0, len(list))
	for i := range list {
		a := &list[i]
		if !achievements.CanView(nil, a) {
			continue
		}

		attrs := AchievementAttributes{
			Title:       a.Title,
			Description: a.Description,
			Privacy:     string(a.Privacy),
			Featured:    a.Featured,
		}
		if a.CoverImage != "" {
			attrs.CoverImage = "/covers/" + a.CoverImage
		}

		data = append(data, AchievementResource{
			Type:       achievementsType,
			ID:         strconv.FormatUint(uint64(a.ID), 10),
			Attributes: attrs,
		})
	}
	return data
}

func registerAPI(api huma.API, h *APIHandler) {
	huma.Get(api, "/api/achievements", h.HandleList, func(o *huma.Operation) {
		o.OperationID = "list-achievements"
		o.Summary = "List public achievements"
		o.Tags = []string{"achievements"}
	})
}
