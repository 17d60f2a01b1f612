package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/db/repository"
)

type stubQuizStore struct {
	created []repository.CreateQuizParams
	updated []repository.UpdateQuizParams
	filters []repository.QuizFilter

	current    repository.Quiz
	getErr     error
	deleteURLs []string
	deleteErr  error
}

func (s *stubQuizStore) Create(_ context.Context, params repository.CreateQuizParams) (repository.Quiz, error) {
	s.created = append(s.created, params)
	return repository.Quiz{
		QuizID:     uuid.New(),
		OwnerID:    params.OwnerID,
		Title:      params.Title,
		Visibility: params.Visibility,
	}, nil
}

func (s *stubQuizStore) GetByID(_ context.Context, _ uuid.UUID) (repository.Quiz, error) {
	if s.getErr != nil {
		return repository.Quiz{}, s.getErr
	}
	return s.current, nil
}

func (s *stubQuizStore) Update(_ context.Context, params repository.UpdateQuizParams) (repository.Quiz, error) {
	s.updated = append(s.updated, params)
	return repository.Quiz{
		QuizID:     params.QuizID,
		OwnerID:    params.OwnerID,
		Title:      params.Title,
		Visibility: params.Visibility,
	}, nil
}

func (s *stubQuizStore) Delete(_ context.Context, _, _ uuid.UUID) ([]string, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return s.deleteURLs, nil
}

func (s *stubQuizStore) List(_ context.Context, filter repository.QuizFilter) ([]repository.Quiz, error) {
	s.filters = append(s.filters, filter)
	return nil, nil
}

type noopCleaner struct {
	removed []string
}

func (c *noopCleaner) Remove(_ context.Context, url string) error {
	c.removed = append(c.removed, url)
	return nil
}

func TestCreateDefaultsToPrivate(t *testing.T) {
	store := &stubQuizStore{}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	created, err := svc.Create(context.Background(), uuid.New(), CreateRequest{Title: "Geography"})
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, created.Visibility)
}

func TestGetPrivateQuizHiddenFromStrangers(t *testing.T) {
	owner := uuid.New()
	store := &stubQuizStore{current: repository.Quiz{QuizID: uuid.New(), OwnerID: owner, Visibility: VisibilityPrivate}}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	stranger := uuid.New()
	_, err := svc.Get(context.Background(), store.current.QuizID, &stranger)
	assert.ErrorIs(t, err, repository.ErrQuizNotFound)

	got, err := svc.Get(context.Background(), store.current.QuizID, &owner)
	require.NoError(t, err)
	assert.Equal(t, store.current.QuizID, got.QuizID)
}

func TestGetPublicQuizVisibleToAnyone(t *testing.T) {
	store := &stubQuizStore{current: repository.Quiz{QuizID: uuid.New(), OwnerID: uuid.New(), Visibility: VisibilityPublic}}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	got, err := svc.Get(context.Background(), store.current.QuizID, nil)
	require.NoError(t, err)
	assert.Equal(t, store.current.QuizID, got.QuizID)
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	store := &stubQuizStore{current: repository.Quiz{QuizID: uuid.New(), OwnerID: uuid.New()}}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	title := "hijacked"
	_, err := svc.Update(context.Background(), uuid.New(), store.current.QuizID, UpdateRequest{Title: &title})
	assert.ErrorIs(t, err, repository.ErrQuizNotFound)
	assert.Empty(t, store.updated)
}

func TestUpdateMergesUnsetFields(t *testing.T) {
	owner := uuid.New()
	store := &stubQuizStore{current: repository.Quiz{
		QuizID:      uuid.New(),
		OwnerID:     owner,
		Title:       "World Capitals",
		Description: "flags and capitals",
		Visibility:  VisibilityPrivate,
	}}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	visibility := VisibilityPublic
	updated, err := svc.Update(context.Background(), owner, store.current.QuizID, UpdateRequest{Visibility: &visibility})
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, updated.Visibility)
	require.Len(t, store.updated, 1)
	assert.Equal(t, "World Capitals", store.updated[0].Title)
	assert.Equal(t, "flags and capitals", store.updated[0].Description)
}

func TestDeleteCleansUpImages(t *testing.T) {
	store := &stubQuizStore{deleteURLs: []string{"https://blob/cover.png", "https://blob/q1.png"}}
	cleaner := &noopCleaner{}
	svc := NewService(store, cleaner, zerolog.Nop())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://blob/cover.png", "https://blob/q1.png"}, cleaner.removed)
}

func TestDeleteNotFoundPropagates(t *testing.T) {
	store := &stubQuizStore{deleteErr: repository.ErrQuizNotFound}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrQuizNotFound)
}

func TestListDefaultsToPublicLibrary(t *testing.T) {
	store := &stubQuizStore{}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	caller := uuid.New()
	_, err := svc.List(context.Background(), &caller, ListRequest{Search: "capitals", Limit: 20})
	require.NoError(t, err)
	require.Len(t, store.filters, 1)
	assert.Equal(t, VisibilityPublic, store.filters[0].Visibility)
	assert.Nil(t, store.filters[0].OwnerID)
	assert.Equal(t, "capitals", store.filters[0].Search)
}

func TestListOwnerOnlyIncludesPrivate(t *testing.T) {
	store := &stubQuizStore{}
	svc := NewService(store, &noopCleaner{}, zerolog.Nop())

	caller := uuid.New()
	_, err := svc.List(context.Background(), &caller, ListRequest{OwnerOnly: true})
	require.NoError(t, err)
	require.Len(t, store.filters, 1)
	assert.Empty(t, store.filters[0].Visibility)
	require.NotNil(t, store.filters[0].OwnerID)
	assert.Equal(t, caller, *store.filters[0].OwnerID)
}
