package mockapi

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

func (s *Server) publicDTO(d *deck) models.PublicDeckDTO {
	out := models.PublicDeckDTO{
		ID:         d.id,
		Name:       d.name,
		Type:       d.typ,
		Author:     s.author(d.ownerID),
		Tags:       slices.Clone(d.tags),
		TotalCards: d.totalCards,
		Downloads:  d.downloads,
		CreatedAt:  d.createdAt.UTC().Format(time.RFC3339),
	}
	if d.description != nil {
		out.Description = *d.description
	}

	return out
}

// publicDecks — публичные колоды, самые скачиваемые первыми. Вызывать под s.mu.
func (s *Server) publicDecks() []*deck {
	var list []*deck
	for _, d := range s.decks {
		if d.isPublic {
			list = append(list, d)
		}
	}

	slices.SortFunc(list, func(a, b *deck) int {
		if c := cmp.Compare(b.downloads, a.downloads); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	return list
}

// matches: keyword ищется в имени и описании, теги должны присутствовать все.
func matches(d *deck, keyword string, typ models.DeckType, tags []string) bool {
	if typ != "" && d.typ != typ {
		return false
	}

	if keyword != "" {
		kw := strings.ToLower(keyword)
		inName := strings.Contains(strings.ToLower(d.name), kw)
		inDesc := d.description != nil && strings.Contains(strings.ToLower(*d.description), kw)
		if !inName && !inDesc {
			return false
		}
	}

	for _, t := range tags {
		if !slices.ContainsFunc(d.tags, func(dt string) bool { return strings.EqualFold(dt, t) }) {
			return false
		}
	}

	return true
}

func (s *Server) browseDecks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("keyword"))
	typ := models.DeckType(q.Get("type"))
	tags := cleanTags(q["tags"])

	s.mu.Lock()
	var list []*deck
	for _, d := range s.publicDecks() {
		if matches(d, keyword, typ, tags) {
			list = append(list, d)
		}
	}

	page, meta := paginate(list, queryInt(r, "page", 1), queryInt(r, "pageSize", defaultPageSize))
	out := make([]models.PublicDeckDTO, 0, len(page))
	for _, d := range page {
		out = append(out, s.publicDTO(d))
	}
	s.mu.Unlock()

	okPage(w, out, meta)
}

func (s *Server) trendingDecks(w http.ResponseWriter, r *http.Request) {
	limit := min(queryInt(r, "limit", models.DefaultTrendingLimit), maxPageSize)

	s.mu.Lock()
	list := s.publicDecks()
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.PublicDeckDTO, 0, len(list))
	for _, d := range list {
		out = append(out, s.publicDTO(d))
	}
	s.mu.Unlock()

	ok(w, out)
}

func (s *Server) popularTags(w http.ResponseWriter, r *http.Request) {
	limit := min(queryInt(r, "limit", models.DefaultTagsLimit), maxPageSize)

	counts := map[string]int{}
	s.mu.Lock()
	for _, d := range s.publicDecks() {
		for _, t := range d.tags {
			counts[t]++
		}
	}
	s.mu.Unlock()

	out := make([]models.TagStatDTO, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.TagStatDTO{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b models.TagStatDTO) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}

	ok(w, out)
}

func (s *Server) publicDeckDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid deck id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.decks[id]
	if !found || !d.isPublic {
		fail(w, http.StatusNotFound, "Deck not found")
		return
	}

	ok(w, s.publicDTO(d))
}

// cloneDeck копирует публичную колоду в библиотеку пользователя.
// Повторный клон — логический отказ с HTTP 200.
func (s *Server) cloneDeck(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid deck id")
		return
	}

	var in models.CloneDeckRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, found := s.decks[id]
	if !found || !src.isPublic {
		fail(w, http.StatusNotFound, "Deck not found")
		return
	}
	if src.ownerID == u.id {
		fail(w, http.StatusBadRequest, "You cannot clone your own deck")
		return
	}
	for _, d := range s.decks {
		if d.ownerID == u.id && d.parentDeckID != nil && *d.parentDeckID == src.id {
			failLogical(w, http.StatusConflict, "Deck already in your library")
			return
		}
	}

	name := strings.TrimSpace(in.CustomName)
	if name == "" {
		name = src.name
	}
	parent := src.id

	s.nextDeckID++
	clone := &deck{
		id:           s.nextDeckID,
		ownerID:      u.id,
		name:         name,
		description:  src.description,
		typ:          src.typ,
		parentDeckID: &parent,
		tags:         slices.Clone(src.tags),
		totalCards:   src.totalCards,
		due:          src.totalCards,
		createdAt:    s.opts.Now(),
	}
	s.decks[clone.id] = clone
	src.downloads++

	ok(w, detailDTO(clone))
}
