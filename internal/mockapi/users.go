package mockapi

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/mockapi/middleware"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

const maxAvatarBytes = 2 << 20

var avatarExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// currentUser — пользователь из токена. При ошибке уже ответил клиенту.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*user, bool) {
	uid, _ := middleware.UserID(r.Context())

	s.mu.Lock()
	u, found := s.users[uid]
	s.mu.Unlock()

	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	return u, true
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	out := models.UserProfileDTO{User: u.dto(), Settings: u.settings}
	s.mu.Unlock()

	ok(w, out)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.UpdateProfileRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(in.Username)
	if name == "" {
		fail(w, http.StatusBadRequest, "Username is required")
		return
	}

	s.mu.Lock()
	u.username = name
	s.mu.Unlock()

	ok(w, true)
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1024)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !avatarExts[ext] {
		fail(w, http.StatusBadRequest, "Unsupported image format")
		return
	}

	n, err := io.Copy(io.Discard, io.LimitReader(file, maxAvatarBytes+1))
	if err != nil || n == 0 || n > maxAvatarBytes {
		fail(w, http.StatusBadRequest, "File is empty or too large")
		return
	}

	path := "/uploads/avatars/" + uuid.NewString() + ext

	s.mu.Lock()
	u.avatarURL = path
	s.mu.Unlock()

	ok(w, path)
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	s.mu.Lock()
	out := u.settings
	s.mu.Unlock()

	ok(w, out)
}

func (s *Server) updateGhostMode(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.UpdateGhostModeRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	u.settings.EnableGhostMode = in.Enabled
	s.mu.Unlock()

	ok(w, true)
}

func (s *Server) updateDailyGoal(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.UpdateDailyGoalRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Goal < models.DailyGoalMin || in.Goal > models.DailyGoalMax {
		fail(w, http.StatusBadRequest, "Daily goal must be between 1 and 100")
		return
	}

	s.mu.Lock()
	u.settings.DailyGoal = in.Goal
	s.mu.Unlock()

	ok(w, true)
}

// updateLanguage хранит язык так, как его исторически отдаёт бэкенд:
// с заглавной буквы ("Vi", "En").
func (s *Server) updateLanguage(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.UpdateLanguageRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code := strings.ToLower(strings.TrimSpace(in.Language))
	if !locale.IsSupported(code) {
		fail(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	s.mu.Lock()
	u.settings.UILanguage = strings.ToUpper(code[:1]) + code[1:]
	s.mu.Unlock()

	ok(w, true)
}
