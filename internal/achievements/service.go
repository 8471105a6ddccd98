package achievements

import (
	"context"
	"errors"
	"html/template"
	"io"
	"reflect"
	"strings"

	"github.com/gdg-garage/achievement-board/internal/async"
	"github.com/gdg-garage/achievement-board/internal/metrics"
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/gdg-garage/achievement-board/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const duplicateTitleMessage = "You already have the same title"

// Notifier tells an owner that their achievement was created.
type Notifier interface {
	NotifyAchievementCreated(ctx context.Context, owner models.User, a models.Achievement) error
}

// Poster announces a new achievement publicly and returns a link to the post.
type Poster interface {
	PostAchievement(ctx context.Context, a models.Achievement) (string, error)
}

type CoverStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(id string) error
}

type Renderer interface {
	Render(src string) (template.HTML, error)
}

// Upload is a cover image as received from the client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Input is the complete set of fields a client may set on an achievement.
// The owner is never part of it.
type Input struct {
	Title       string
	Description string
	Privacy     models.Privacy
	Featured    bool
	Cover       *Upload
}

// Shown is an achievement prepared for display.
type Shown struct {
	Achievement     *models.Achievement
	DescriptionHTML template.HTML
}

// Created is the outcome of a successful Create. PostURL is empty when no
// poster is configured or the post failed.
type Created struct {
	Achievement *models.Achievement
	PostURL     string
}

type Service struct {
	db         *gorm.DB
	notifier   Notifier
	poster     Poster
	covers     CoverStore
	renderer   Renderer
	logger     *zap.Logger
	dispatcher *async.Dispatcher
	metrics    *metrics.Metrics
	validate   *validator.Validate
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithPoster(p Poster) Option {
	return func(s *Service) { s.poster = p }
}

func WithCovers(c CoverStore) Option {
	return func(s *Service) { s.covers = c }
}

func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithDispatcher(d *async.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		logger:   zap.NewNop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = async.NewDispatcher(s.logger)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "owner_id" {
			return "owner"
		}
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Wait blocks until dispatched side effects have finished.
func (s *Service) Wait() {
	s.dispatcher.Wait()
}

func (s *Service) ListPublic(ctx context.Context) ([]models.Achievement, error) {
	var list []models.Achievement
	err := s.db.WithContext(ctx).
		Where("privacy = ?", models.PrivacyPublic).
		Order("id").
		Find(&list).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list public achievements")
	}
	return list, nil
}

// Show returns any achievement by id regardless of its privacy.
func (s *Service) Show(ctx context.Context, id uint) (*Shown, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Shown{Achievement: a, DescriptionHTML: s.render(a)}, nil
}

func (s *Service) render(a *models.Achievement) template.HTML {
	if s.renderer == nil {
		return template.HTML(template.HTMLEscapeString(a.Description))
	}
	html, err := s.renderer.Render(a.Description)
	if err != nil {
		s.logger.Warn("markdown rendering failed", zap.Uint("achievement_id", a.ID), zap.Error(err))
		return template.HTML(template.HTMLEscapeString(a.Description))
	}
	return html
}

// New returns the blank achievement backing the creation form.
func (s *Service) New(actor *models.User) (*models.Achievement, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return &models.Achievement{Privacy: models.PrivacyPublic, OwnerID: actor.ID}, nil
}

// Create validates and stores a new achievement owned by actor. On a
// validation failure the unsaved achievement is returned with the error.
func (s *Service) Create(ctx context.Context, actor *models.User, in Input) (*Created, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	a := &models.Achievement{
		OwnerID: actor.ID,
		Owner:   *actor,
		Privacy: models.PrivacyPrivate,
	}
	in.applyTo(a)

	if err := s.persist(ctx, a, in.Cover, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(a).Error
	}); err != nil {
		return &Created{Achievement: a}, err
	}

	s.logger.Info("achievement created", zap.Uint("achievement_id", a.ID), zap.Uint("owner_id", a.OwnerID))
	if s.metrics != nil {
		s.metrics.AchievementsCreated.Inc()
	}

	created := &Created{Achievement: a}
	s.notifyOwner(ctx, *actor, *a)
	created.PostURL = s.announce(ctx, *a)
	return created, nil
}

func (s *Service) notifyOwner(ctx context.Context, owner models.User, a models.Achievement) {
	if s.notifier == nil {
		return
	}
	s.dispatcher.Go(ctx, "notify_owner", func(ctx context.Context) error {
		if err := s.notifier.NotifyAchievementCreated(ctx, owner, a); err != nil {
			s.sideEffectFailed("notify_owner")
			return goerr.Wrap(err, "failed to notify owner", goerr.V("achievement_id", a.ID))
		}
		return nil
	})
}

// announce runs inline because its link is part of the response.
func (s *Service) announce(ctx context.Context, a models.Achievement) string {
	if s.poster == nil {
		return ""
	}
	url, err := s.poster.PostAchievement(ctx, a)
	if err != nil {
		s.sideEffectFailed("social_post")
		s.logger.Warn("social post failed", zap.Uint("achievement_id", a.ID), zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) sideEffectFailed(kind string) {
	if s.metrics != nil {
		s.metrics.SideEffectFailures.WithLabelValues(kind).Inc()
	}
}

// Edit returns the achievement for the edit form if actor owns it.
func (s *Service) Edit(ctx context.Context, actor *models.User, id uint) (*models.Achievement, error) {
	return s.authorize(ctx, actor, id)
}

// Update applies in to the achievement owned by actor. On a validation
// failure the achievement carrying the rejected edits is returned with the
// error and nothing is written.
func (s *Service) Update(ctx context.Context, actor *models.User, id uint, in Input) (*models.Achievement, error) {
	a, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	previousCover := a.CoverImage
	in.applyTo(a)

	if err := s.persist(ctx, a, in.Cover, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(a).Error
	}); err != nil {
		return a, err
	}

	if in.Cover != nil && previousCover != "" && previousCover != a.CoverImage {
		s.removeCover(previousCover)
	}
	return a, nil
}

// Delete permanently removes the achievement owned by actor.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uint) error {
	a, err := s.authorize(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Achievement{}, a.ID).Error; err != nil {
		return goerr.Wrap(err, "failed to delete achievement", goerr.V("achievement_id", a.ID))
	}

	if a.CoverImage != "" {
		s.removeCover(a.CoverImage)
	}
	return nil
}

// authorize checks sign-in, then existence, then ownership.
func (s *Service) authorize(ctx context.Context, actor *models.User, id uint) (*models.Achievement, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *Service) find(ctx context.Context, id uint) (*models.Achievement, error) {
	var a models.Achievement
	err := s.db.WithContext(ctx).Preload("Owner").First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find achievement", goerr.V("achievement_id", id))
	}
	return &a, nil
}

// persist validates a, stores the cover upload, then runs write. A stored
// cover is removed again if write fails.
func (s *Service) persist(ctx context.Context, a *models.Achievement, cover *Upload, write func(tx *gorm.DB) error) error {
	fields, err := s.check(ctx, a)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	var stored string
	if cover != nil {
		if s.covers == nil {
			return &ValidationError{Fields: FieldErrors{"cover_image": {"uploads are disabled"}}}
		}
		id, err := s.covers.Save(cover.Filename, cover.Body)
		if errors.Is(err, storage.ErrNotImage) {
			return &ValidationError{Fields: FieldErrors{"cover_image": {"must be an image file"}}}
		}
		if err != nil {
			return goerr.Wrap(err, "failed to store cover image")
		}
		stored = id
		a.CoverImage = id
	}

	err = write(s.db.WithContext(ctx))
	if err == nil {
		return nil
	}

	if stored != "" {
		s.removeCover(stored)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ValidationError{Fields: FieldErrors{"title": {duplicateTitleMessage}}}
	}
	return goerr.Wrap(err, "failed to save achievement", goerr.V("achievement_id", a.ID))
}

// check runs the entity rules and returns the failing fields.
func (s *Service) check(ctx context.Context, a *models.Achievement) (FieldErrors, error) {
	fields := FieldErrors{}

	if err := s.validate.StructCtx(ctx, a); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, goerr.Wrap(err, "failed to validate achievement")
		}
		for _, fe := range verrs {
			fields.Add(fe.Field(), validationMessage(fe))
		}
	}

	if a.Title != "" && a.OwnerID != 0 {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Achievement{}).
			Where("owner_id = ? AND title = ? AND id <> ?", a.OwnerID, a.Title, a.ID).
			Count(&count).Error
		if err != nil {
			return nil, goerr.Wrap(err, "failed to check title uniqueness")
		}
		if count > 0 {
			fields.Add("title", duplicateTitleMessage)
		}
	}

	return fields, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "max":
		return "is too long (maximum is " + fe.Param() + " characters)"
	case "oneof":
		return "is not included in the list"
	}
	return "is invalid"
}

func (s *Service) removeCover(id string) {
	if s.covers == nil {
		return
	}
	if err := s.covers.Remove(id); err != nil {
		s.logger.Warn("failed to remove cover image", zap.String("cover", id), zap.Error(err))
	}
}

// applyTo copies the allow-listed fields onto a. An empty privacy keeps
// whatever a already has.
func (in Input) applyTo(a *models.Achievement) {
	a.Title = strings.TrimSpace(in.Title)
	a.Description = in.Description
	a.Featured = in.Featured
	if in.Privacy != "" {
		a.Privacy = in.Privacy
	}
}
