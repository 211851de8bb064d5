package models

// PublicDeckDTO — колода витрины.
type PublicDeckDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        DeckType  `json:"type"`
	Author      AuthorDTO `json:"author"`
	Tags        []string  `json:"tags"`
	TotalCards  int       `json:"totalCards"`
	Downloads   int       `json:"downloads"`
	CreatedAt   string    `json:"createdAt"`
}

// TagStatDTO — тег и число колод с ним.
type TagStatDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CloneDeckRequest struct {
	CustomName string `json:"customName,omitempty"`
}

// BrowseDecksParams — фильтры GET /store/decks. Tags уходят повторяющимся параметром.
type BrowseDecksParams struct {
	Page     int
	PageSize int
	Keyword  string
	Type     DeckType
	Tags     []string
}

// Лимиты по умолчанию для витрины.
const (
	DefaultTrendingLimit = 10
	DefaultTagsLimit     = 20
)
