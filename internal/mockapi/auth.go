package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/pkg/log"
	"github.com/pribylovaa/flashcards-client/internal/pkg/redact"
)

const minPasswordLen = 6

// user — учётная запись в памяти.
type user struct {
	id           int64
	username     string
	email        string
	passwordHash []byte
	role         string
	avatarURL    string
	settings     models.UserSettingsDTO
}

func (u *user) dto() models.User {
	role, _ := json.Marshal(u.role)
	return models.User{ID: u.id, Username: u.username, Email: u.email, Role: role, AvatarURL: u.avatarURL}
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		fail(w, http.StatusBadRequest, "Username is required")
		return
	case !validEmail(email):
		fail(w, http.StatusBadRequest, "Invalid email format")
		return
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		fail(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		log.From(r.Context()).Error("password_hash_failed", slog.String("err", err.Error()))
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		fail(w, http.StatusConflict, "Email already exists")
		return
	}

	s.nextUserID++
	u := &user{
		id:           s.nextUserID,
		username:     username,
		email:        email,
		passwordHash: hash,
		role:         "User",
		settings: models.UserSettingsDTO{
			DailyGoal:  models.DefaultDailyGoal,
			UILanguage: "Vi",
		},
	}
	s.users[u.id] = u
	s.byEmail[email] = u.id

	pair, err := s.issueTokenPair(u.id)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.From(r.Context()).Info("user_registered", slog.String("email", redact.Email(email)))
	ok(w, models.AuthDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: u.dto()})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, found := s.users[s.byEmail[normalizeEmail(in.Email)]]
	if !found || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.Password)) != nil {
		log.From(r.Context()).Info("login_rejected", slog.String("email", redact.Email(in.Email)))
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	pair, err := s.issueTokenPair(u.id)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok(w, models.AuthDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: u.dto()})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshes.Add(1)

	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		fail(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, err := s.rotateRefreshToken(in.RefreshToken)
	if err != nil {
		log.From(r.Context()).Warn("refresh_rejected",
			slog.String("refresh_token", redact.TokenTail(in.RefreshToken)),
			slog.String("err", err.Error()),
		)
		fail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	ok(w, pair)
}

// forgotPassword всегда отвечает успехом, чтобы не раскрывать наличие email.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in models.ForgotPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		fail(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	s.mu.Lock()
	if uid, found := s.byEmail[email]; found {
		for tok, id := range s.resetTokens {
			if id == uid {
				delete(s.resetTokens, tok)
			}
		}
		s.resetTokens[randomToken(16)] = uid
		log.From(r.Context()).Info("password_reset_issued", slog.String("email", redact.Email(email)))
	}
	s.mu.Unlock()

	ok(w, true)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in models.ResetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if utf8.RuneCountInString(in.NewPassword) < minPasswordLen {
		fail(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.MinCost)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid, found := s.resetTokens[in.Token]
	if !found {
		fail(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	delete(s.resetTokens, in.Token)
	s.users[uid].passwordHash = hash

	ok(w, true)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	u, found := s.currentUser(w, r)
	if !found {
		return
	}

	var in models.ChangePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if utf8.RuneCountInString(in.NewPassword) < minPasswordLen {
		fail(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.MinCost)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.CurrentPassword)) != nil {
		fail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	u.passwordHash = hash

	ok(w, true)
}
