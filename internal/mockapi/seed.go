package mockapi

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

// SeedPassword — пароль демо-пользователя author@flashcards.local.
const SeedPassword = "flashcards"

type seedDeck struct {
	name      string
	desc      string
	typ       models.DeckType
	tags      []string
	cards     int
	downloads int
}

var seedDecks = []seedDeck{
	{"JLPT N5 Vocabulary", "Core words for the N5 exam", models.DeckVocabulary, []string{"JLPT", "N5", "Japanese"}, 680, 1520},
	{"JLPT N5 Grammar", "Basic grammar patterns", models.DeckGrammar, []string{"JLPT", "N5", "Japanese"}, 120, 940},
	{"JLPT N4 Vocabulary", "", models.DeckVocabulary, []string{"JLPT", "N4", "Japanese"}, 750, 610},
	{"IELTS Academic Words", "Academic word list for IELTS", models.DeckVocabulary, []string{"IELTS", "English"}, 570, 1210},
	{"English Phrasal Verbs", "Most common phrasal verbs", models.DeckVocabulary, []string{"English"}, 300, 480},
	{"Tiếng Việt cơ bản", "Từ vựng tiếng Việt cho người mới bắt đầu", models.DeckVocabulary, []string{"Vietnamese"}, 200, 150},
}

// seed создаёт демо-автора и публичные колоды витрины.
func (s *Server) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)

	s.nextUserID++
	author := &user{
		id:           s.nextUserID,
		username:     "flashcards",
		email:        "author@flashcards.local",
		passwordHash: hash,
		role:         "Admin",
		settings:     models.UserSettingsDTO{DailyGoal: models.DefaultDailyGoal, UILanguage: "En"},
	}
	s.users[author.id] = author
	s.byEmail[author.email] = author.id

	base := s.opts.Now().Add(-30 * 24 * time.Hour)
	for i, sd := range seedDecks {
		s.nextDeckID++
		d := &deck{
			id:         s.nextDeckID,
			ownerID:    author.id,
			name:       sd.name,
			typ:        sd.typ,
			isPublic:   true,
			tags:       sd.tags,
			totalCards: sd.cards,
			due:        sd.cards,
			downloads:  sd.downloads,
			createdAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if sd.desc != "" {
			desc := sd.desc
			d.description = &desc
		}
		s.decks[d.id] = d
	}
}
