package models

// DeckType — тип колоды.
type DeckType string

const (
	DeckVocabulary DeckType = "Vocabulary"
	DeckGrammar    DeckType = "Grammar"
)

// Valid — допустимое значение типа колоды (пустой тип не валиден).
func (t DeckType) Valid() bool {
	return t == DeckVocabulary || t == DeckGrammar
}

// AuthorDTO — автор колоды.
type AuthorDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DeckStatsDTO — прогресс пользователя по колоде.
type DeckStatsDTO struct {
	TotalCards int `json:"totalCards"`
	Downloads  int `json:"downloads"`
	Learned    int `json:"learned"`
	Progress   int `json:"progress"` // 0-100
	CardsDue   int `json:"cardsDue"`
}

// UserDeckSummaryDTO — элемент списка личных колод.
type UserDeckSummaryDTO struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  *string      `json:"description"`
	Type         DeckType     `json:"type"`
	Author       AuthorDTO    `json:"author"`
	Stats        DeckStatsDTO `json:"stats"`
	Tags         []string     `json:"tags"`
	IsPublic     bool         `json:"isPublic"`
	SourceDeckID *int64       `json:"sourceDeckId"`
	CreatedAt    string       `json:"createdAt"`
}

// UserDeckDetailDTO — детальная карточка личной колоды.
type UserDeckDetailDTO struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Type         DeckType `json:"type"`
	IsPublic     bool     `json:"isPublic"`
	ParentDeckID *int64   `json:"parentDeckId"`
	Tags         []string `json:"tags"`
	TotalCards   int      `json:"totalCards"`
	Downloads    int      `json:"downloads"`
	CreatedAt    string   `json:"createdAt"`
}

// DeckStatisticsDTO — агрегаты по всем колодам пользователя.
type DeckStatisticsDTO struct {
	TotalDecks      int            `json:"totalDecks"`
	TotalCards      int            `json:"totalCards"`
	TotalLearned    int            `json:"totalLearned"`
	TotalDue        int            `json:"totalDue"`
	OverallProgress int            `json:"overallProgress"`
	PublicDecks     int            `json:"publicDecks"`
	PrivateDecks    int            `json:"privateDecks"`
	DecksByType     map[string]int `json:"decksByType"`
}

type CreateDeckRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Type         DeckType `json:"type"`
	IsPublic     *bool    `json:"isPublic,omitempty"`
	ParentDeckID *int64   `json:"parentDeckId,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// UpdateDeckRequest — type и parentDeckId неизменяемы.
type UpdateDeckRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsPublic    *bool    `json:"isPublic,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// DeckSortBy — поле сортировки личных колод.
type DeckSortBy string

const (
	SortCardsDue  DeckSortBy = "CardsDue"
	SortName      DeckSortBy = "Name"
	SortCreatedAt DeckSortBy = "CreatedAt"
	SortProgress  DeckSortBy = "Progress"
)

// ListDecksParams — фильтры, сортировка и пагинация GET /decks.
type ListDecksParams struct {
	Page      int
	PageSize  int
	Type      DeckType
	IsPublic  *bool
	SortBy    DeckSortBy
	SortOrder string // asc|desc
}
