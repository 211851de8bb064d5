package mockapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

// deck — колода в памяти.
type deck struct {
	id           int64
	ownerID      int64
	name         string
	description  *string
	typ          models.DeckType
	isPublic     bool
	parentDeckID *int64
	tags         []string
	totalCards   int
	learned      int
	due          int
	downloads    int
	createdAt    time.Time
}

func (d *deck) progress() int {
	if d.totalCards == 0 {
		return 0
	}
	return d.learned * 100 / d.totalCards
}

func (s *Server) author(id int64) models.AuthorDTO {
	u, found := s.users[id]
	if !found {
		return models.AuthorDTO{ID: id}
	}

	return models.AuthorDTO{ID: u.id, Name: u.username, AvatarURL: u.avatarURL}
}

func (s *Server) summaryDTO(d *deck) models.UserDeckSummaryDTO {
	return models.UserDeckSummaryDTO{
		ID:          d.id,
		Name:        d.name,
		Description: d.description,
		Type:        d.typ,
		Author:      s.author(d.ownerID),
		Stats: models.DeckStatsDTO{
			TotalCards: d.totalCards,
			Downloads:  d.downloads,
			Learned:    d.learned,
			Progress:   d.progress(),
			CardsDue:   d.due,
		},
		Tags:         slices.Clone(d.tags),
		IsPublic:     d.isPublic,
		SourceDeckID: d.parentDeckID,
		CreatedAt:    d.createdAt.UTC().Format(time.RFC3339),
	}
}

func detailDTO(d *deck) models.UserDeckDetailDTO {
	return models.UserDeckDetailDTO{
		ID:           d.id,
		Name:         d.name,
		Description:  d.description,
		Type:         d.typ,
		IsPublic:     d.isPublic,
		ParentDeckID: d.parentDeckID,
		Tags:         slices.Clone(d.tags),
		TotalCards:   d.totalCards,
		Downloads:    d.downloads,
		CreatedAt:    d.createdAt.UTC().Format(time.RFC3339),
	}
}

// ownDeck — колода текущего пользователя по {id}. Вызывать под s.mu.
// При ошибке уже ответил клиенту.
func (s *Server) ownDeck(w http.ResponseWriter, r *http.Request, uid int64) (*deck, bool) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid deck id")
		return nil, false
	}

	d, found := s.decks[id]
	if !found || d.ownerID != uid {
		fail(w, http.StatusNotFound, "Deck not found")
		return nil, false
	}

	return d, true
}

func (s *Server) listDecks(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	q := r.URL.Query()
	typ := models.DeckType(q.Get("type"))
	var isPublic *bool
	if v, err := strconv.ParseBool(q.Get("isPublic")); err == nil {
		isPublic = &v
	}

	s.mu.Lock()
	var list []*deck
	for _, d := range s.decks {
		if d.ownerID != u.id {
			continue
		}
		if typ != "" && d.typ != typ {
			continue
		}
		if isPublic != nil && d.isPublic != *isPublic {
			continue
		}
		list = append(list, d)
	}

	sortDecks(list, models.DeckSortBy(q.Get("sortBy")), strings.EqualFold(q.Get("sortOrder"), "desc"))

	page, meta := paginate(list, queryInt(r, "page", 1), queryInt(r, "pageSize", defaultPageSize))
	out := make([]models.UserDeckSummaryDTO, 0, len(page))
	for _, d := range page {
		out = append(out, s.summaryDTO(d))
	}
	s.mu.Unlock()

	okPage(w, out, meta)
}

// sortDecks: по умолчанию CreatedAt desc; id — тай-брейк для стабильных страниц.
func sortDecks(list []*deck, by models.DeckSortBy, desc bool) {
	if by == "" {
		by, desc = models.SortCreatedAt, true
	}

	slices.SortStableFunc(list, func(a, b *deck) int {
		var c int
		switch by {
		case models.SortName:
			c = strings.Compare(strings.ToLower(a.name), strings.ToLower(b.name))
		case models.SortCardsDue:
			c = a.due - b.due
		case models.SortProgress:
			c = a.progress() - b.progress()
		default:
			c = a.createdAt.Compare(b.createdAt)
		}
		if c == 0 {
			c = int(a.id - b.id)
		}
		if desc {
			return -c
		}
		return c
	})
}

func (s *Server) deckStatistics(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	out := models.DeckStatisticsDTO{DecksByType: map[string]int{}}

	s.mu.Lock()
	for _, d := range s.decks {
		if d.ownerID != u.id {
			continue
		}
		out.TotalDecks++
		out.TotalCards += d.totalCards
		out.TotalLearned += d.learned
		out.TotalDue += d.due
		out.DecksByType[string(d.typ)]++
		if d.isPublic {
			out.PublicDecks++
		} else {
			out.PrivateDecks++
		}
	}
	s.mu.Unlock()

	if out.TotalCards > 0 {
		out.OverallProgress = out.TotalLearned * 100 / out.TotalCards
	}

	ok(w, out)
}

func (s *Server) getDeck(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.ownDeck(w, r, u.id)
	if !found {
		return
	}

	ok(w, detailDTO(d))
}

func (s *Server) createDeck(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.CreateDeckRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fail(w, http.StatusBadRequest, "Deck name is required")
		return
	case !in.Type.Valid():
		fail(w, http.StatusBadRequest, "Deck type must be Vocabulary or Grammar")
		return
	}

	d := &deck{
		ownerID:      u.id,
		name:         name,
		typ:          in.Type,
		parentDeckID: in.ParentDeckID,
		tags:         cleanTags(in.Tags),
		createdAt:    s.opts.Now(),
	}
	if in.Description != "" {
		desc := in.Description
		d.description = &desc
	}
	if in.IsPublic != nil {
		d.isPublic = *in.IsPublic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.decks {
		if other.ownerID == u.id && strings.EqualFold(other.name, name) {
			failLogical(w, http.StatusConflict, "You already have a deck with this name")
			return
		}
	}

	s.nextDeckID++
	d.id = s.nextDeckID
	s.decks[d.id] = d

	created(w, detailDTO(d))
}

func (s *Server) updateDeck(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.UpdateDeckRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.ownDeck(w, r, u.id)
	if !found {
		return
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			fail(w, http.StatusBadRequest, "Deck name is required")
			return
		}
		d.name = name
	}
	if in.Description != nil {
		desc := *in.Description
		d.description = &desc
	}
	if in.IsPublic != nil {
		d.isPublic = *in.IsPublic
	}
	if in.Tags != nil {
		d.tags = cleanTags(in.Tags)
	}

	ok(w, detailDTO(d))
}

func (s *Server) togglePublish(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.ownDeck(w, r, u.id)
	if !found {
		return
	}
	d.isPublic = !d.isPublic

	ok(w, detailDTO(d))
}

func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.ownDeck(w, r, u.id)
	if !found {
		return
	}
	delete(s.decks, d.id)

	ok(w, true)
}

func (s *Server) resetProgress(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.ownDeck(w, r, u.id)
	if !found {
		return
	}
	d.learned = 0
	d.due = d.totalCards

	ok(w, true)
}

// cleanTags убирает пустые и повторяющиеся теги, сохраняя порядок.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.ContainsFunc(out, func(o string) bool { return strings.EqualFold(o, t) }) {
			continue
		}
		out = append(out, t)
	}

	return out
}
