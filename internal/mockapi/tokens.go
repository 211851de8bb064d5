package mockapi

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

var (
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

type accessClaims struct {
	Generation int64 `json:"gen"`
	jwt.RegisteredClaims
}

type refreshEntry struct {
	userID    int64
	expiresAt time.Time
}

// issueTokenPair выпускает access JWT и новый refresh-токен.
// Вызывать под s.mu.
func (s *Server) issueTokenPair(userID int64) (models.TokenPair, error) {
	const op = "mockapi.issueTokenPair"

	now := s.opts.Now()
	claims := accessClaims{
		Generation: s.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
			ID:        randomToken(8),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh := randomToken(32)
	s.refreshTokens[hashToken(refresh)] = refreshEntry{userID: userID, expiresAt: now.Add(s.opts.RefreshTTL)}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// verifyAccessToken проверяет подпись, срок и поколение токена.
func (s *Server) verifyAccessToken(token string) (int64, error) {
	const op = "mockapi.verifyAccessToken"

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{},
		func(*jwt.Token) (any, error) { return []byte(s.opts.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%s: %w", op, errTokenExpired)
		}
		return 0, fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.Generation != s.generation.Load() {
		return 0, fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	s.mu.Lock()
	_, exists := s.users[uid]
	s.mu.Unlock()
	if !exists {
		return 0, fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	return uid, nil
}

// rotateRefreshToken гасит refresh-токен и выпускает новую пару.
func (s *Server) rotateRefreshToken(refresh string) (models.TokenPair, error) {
	const op = "mockapi.rotateRefreshToken"

	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashToken(refresh)
	entry, found := s.refreshTokens[key]
	if !found {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, errInvalidToken)
	}
	delete(s.refreshTokens, key)

	if s.opts.Now().After(entry.expiresAt) {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, errTokenExpired)
	}
	if _, exists := s.users[entry.userID]; !exists {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	return s.issueTokenPair(entry.userID)
}

func randomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
