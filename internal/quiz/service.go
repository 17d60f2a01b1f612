package quiz

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/db/repository"
)

// Visibility values for quizzes.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type quizStore interface {
	Create(ctx context.Context, params repository.CreateQuizParams) (repository.Quiz, error)
	GetByID(ctx context.Context, quizID uuid.UUID) (repository.Quiz, error)
	Update(ctx context.Context, params repository.UpdateQuizParams) (repository.Quiz, error)
	Delete(ctx context.Context, quizID, ownerID uuid.UUID) ([]string, error)
	List(ctx context.Context, filter repository.QuizFilter) ([]repository.Quiz, error)
}

type imageCleaner interface {
	Remove(ctx context.Context, url string) error
}

// Service handles quiz metadata CRUD and the public library listing.
type Service struct {
	quizzes quizStore
	images  imageCleaner
	logger  zerolog.Logger
}

// NewService constructs the quiz service.
func NewService(quizzes quizStore, images imageCleaner, logger zerolog.Logger) *Service {
	return &Service{
		quizzes: quizzes,
		images:  images,
		logger:  logger,
	}
}

// CreateRequest carries new quiz metadata.
type CreateRequest struct {
	Title       string
	Description string
	Visibility  string
	ImageURL    *string
}

// UpdateRequest carries new quiz field values; nil fields keep the stored
// value.
type UpdateRequest struct {
	Title       *string
	Description *string
	Visibility  *string
	ImageURL    *string
}

// ListRequest narrows a library listing.
type ListRequest struct {
	OwnerOnly bool
	Search    string
	Limit     int
	Offset    int
}

// Create inserts a quiz owned by the caller.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (repository.Quiz, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}
	return s.quizzes.Create(ctx, repository.CreateQuizParams{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Visibility:  visibility,
		ImageURL:    req.ImageURL,
	})
}

// Get returns a quiz readable by the caller: public, or owned.
func (s *Service) Get(ctx context.Context, quizID uuid.UUID, callerID *uuid.UUID) (repository.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return repository.Quiz{}, err
	}
	if quiz.Visibility != VisibilityPublic && (callerID == nil || *callerID != quiz.OwnerID) {
		return repository.Quiz{}, repository.ErrQuizNotFound
	}
	return quiz, nil
}

// Update rewrites quiz metadata, scoped to the owner.
func (s *Service) Update(ctx context.Context, ownerID, quizID uuid.UUID, req UpdateRequest) (repository.Quiz, error) {
	current, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return repository.Quiz{}, err
	}
	if current.OwnerID != ownerID {
		return repository.Quiz{}, repository.ErrQuizNotFound
	}

	params := repository.UpdateQuizParams{
		QuizID:      quizID,
		OwnerID:     ownerID,
		Title:       current.Title,
		Description: current.Description,
		Visibility:  current.Visibility,
		ImageURL:    current.ImageURL,
	}
	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Visibility != nil {
		params.Visibility = *req.Visibility
	}
	if req.ImageURL != nil {
		params.ImageURL = req.ImageURL
	}
	return s.quizzes.Update(ctx, params)
}

// Delete hard-deletes a quiz, cascading through questions and answers, then
// clears every referenced image from blob storage. Cleanup failures are
// logged, not surfaced; the row delete has already committed.
func (s *Service) Delete(ctx context.Context, ownerID, quizID uuid.UUID) error {
	images, err := s.quizzes.Delete(ctx, quizID, ownerID)
	if err != nil {
		return err
	}
	for _, url := range images {
		if err := s.images.Remove(ctx, url); err != nil {
			s.logger.Warn().Err(err).Str("url", url).Msg("image cleanup failed")
		}
	}
	return nil
}

// List returns the public library, or the caller's own quizzes when
// OwnerOnly is set.
func (s *Service) List(ctx context.Context, callerID *uuid.UUID, req ListRequest) ([]repository.Quiz, error) {
	filter := repository.QuizFilter{
		Visibility: VisibilityPublic,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.OwnerOnly && callerID != nil {
		filter.Visibility = ""
		filter.OwnerID = callerID
	}
	return s.quizzes.List(ctx, filter)
}
