package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

// DeckService — личные колоды пользователя (/decks).
type DeckService struct {
	c *client.Client
}

// List — GET /decks с фильтрами, сортировкой и пагинацией.
func (s *DeckService) List(ctx context.Context, p models.ListDecksParams) (models.Page[models.UserDeckSummaryDTO], error) {
	const op = "services.decks.List"

	q := url.Values{}
	setInt(q, "page", p.Page)
	setInt(q, "pageSize", p.PageSize)
	setString(q, "type", string(p.Type))
	if p.IsPublic != nil {
		q.Set("isPublic", strconv.FormatBool(*p.IsPublic))
	}
	setString(q, "sortBy", string(p.SortBy))
	setString(q, "sortOrder", p.SortOrder)

	page, err := getPage[models.UserDeckSummaryDTO](ctx, s.c, "/decks", q)
	if err != nil {
		return page, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (s *DeckService) Get(ctx context.Context, id int64) (models.UserDeckDetailDTO, error) {
	const op = "services.decks.Get"

	out, err := get[models.UserDeckDetailDTO](ctx, s.c, idPath("/decks", id, ""), nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Statistics — агрегаты по всем колодам пользователя.
func (s *DeckService) Statistics(ctx context.Context) (models.DeckStatisticsDTO, error) {
	const op = "services.decks.Statistics"

	out, err := get[models.DeckStatisticsDTO](ctx, s.c, "/decks/statistics", nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *DeckService) Create(ctx context.Context, in models.CreateDeckRequest) (models.UserDeckDetailDTO, error) {
	const op = "services.decks.Create"

	if !in.Type.Valid() {
		return models.UserDeckDetailDTO{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidDeckType, in.Type)
	}

	out, err := call[models.UserDeckDetailDTO](ctx, s.c, http.MethodPost, "/decks", in)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Update — PUT /decks/{id}; тип и родительская колода не меняются.
func (s *DeckService) Update(ctx context.Context, id int64, in models.UpdateDeckRequest) (models.UserDeckDetailDTO, error) {
	const op = "services.decks.Update"

	out, err := call[models.UserDeckDetailDTO](ctx, s.c, http.MethodPut, idPath("/decks", id, ""), in)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// TogglePublish переключает видимость колоды в витрине.
func (s *DeckService) TogglePublish(ctx context.Context, id int64) (models.UserDeckDetailDTO, error) {
	const op = "services.decks.TogglePublish"

	out, err := call[models.UserDeckDetailDTO](ctx, s.c, http.MethodPatch, idPath("/decks", id, "/publish"), nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Delete удаляет колоду вместе с карточками и прогрессом.
func (s *DeckService) Delete(ctx context.Context, id int64) error {
	const op = "services.decks.Delete"

	if _, err := call[bool](ctx, s.c, http.MethodDelete, idPath("/decks", id, ""), nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetProgress сбрасывает прогресс изучения, карточки остаются.
func (s *DeckService) ResetProgress(ctx context.Context, id int64) error {
	const op = "services.decks.ResetProgress"

	if _, err := call[bool](ctx, s.c, http.MethodPost, idPath("/decks", id, "/reset"), nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
