package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

// StoreService — витрина публичных колод (/store).
type StoreService struct {
	c *client.Client
}

// Browse — GET /store/decks; теги уходят повторяющимся параметром
// (tags=JLPT&tags=N5).
func (s *StoreService) Browse(ctx context.Context, p models.BrowseDecksParams) (models.Page[models.PublicDeckDTO], error) {
	const op = "services.store.Browse"

	q := url.Values{}
	setInt(q, "page", p.Page)
	setInt(q, "pageSize", p.PageSize)
	setString(q, "keyword", strings.TrimSpace(p.Keyword))
	setString(q, "type", string(p.Type))
	for _, tag := range p.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Add("tags", tag)
		}
	}

	page, err := getPage[models.PublicDeckDTO](ctx, s.c, "/store/decks", q)
	if err != nil {
		return page, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// Trending — самые скачиваемые колоды; limit <= 0 — DefaultTrendingLimit.
func (s *StoreService) Trending(ctx context.Context, limit int) ([]models.PublicDeckDTO, error) {
	const op = "services.store.Trending"

	if limit <= 0 {
		limit = models.DefaultTrendingLimit
	}
	q := url.Values{}
	setInt(q, "limit", limit)

	out, err := get[[]models.PublicDeckDTO](ctx, s.c, "/store/decks/trending", q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// PopularTags — теги с числом колод; limit <= 0 — DefaultTagsLimit.
func (s *StoreService) PopularTags(ctx context.Context, limit int) ([]models.TagStatDTO, error) {
	const op = "services.store.PopularTags"

	if limit <= 0 {
		limit = models.DefaultTagsLimit
	}
	q := url.Values{}
	setInt(q, "limit", limit)

	out, err := get[[]models.TagStatDTO](ctx, s.c, "/store/tags", q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *StoreService) Detail(ctx context.Context, id int64) (models.PublicDeckDTO, error) {
	const op = "services.store.Detail"

	out, err := get[models.PublicDeckDTO](ctx, s.c, idPath("/store/decks", id, ""), nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Clone копирует публичную колоду в библиотеку пользователя.
// Пустое customName — имя оригинала.
func (s *StoreService) Clone(ctx context.Context, id int64, customName string) (models.UserDeckDetailDTO, error) {
	const op = "services.store.Clone"

	in := models.CloneDeckRequest{CustomName: strings.TrimSpace(customName)}
	out, err := call[models.UserDeckDetailDTO](ctx, s.c, http.MethodPost, idPath("/store/decks", id, "/clone"), in)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
