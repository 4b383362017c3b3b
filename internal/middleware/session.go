package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the signed cookie carrying the view session.
const SessionCookieName = "SAFETAG_SESSION"

const sessionTTL = 30 * 24 * time.Hour

// SessionData identifies one browser session. Download state is keyed on its ID.
type SessionData struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sessions signs and verifies session cookies.
type Sessions struct {
	key       []byte
	secure    bool
	ephemeral bool
	now       func() time.Time
}

// NewSessions returns a session manager. An empty key is replaced by a random
// process-local key; Ephemeral reports when that happened.
func NewSessions(signingKey string, secure bool) (*Sessions, error) {
	s := &Sessions{key: []byte(signingKey), secure: secure, now: time.Now}
	if strings.TrimSpace(signingKey) == "" {
		s.key = make([]byte, 32)
		if _, err := rand.Read(s.key); err != nil {
			return nil, fmt.Errorf("session: generate signing key: %w", err)
		}
		s.ephemeral = true
	}
	return s, nil
}

// Ephemeral reports whether the signing key was generated for this process.
func (s *Sessions) Ephemeral() bool { return s.ephemeral }

// Secure reports whether cookies are marked Secure.
func (s *Sessions) Secure() bool { return s.secure }

// Middleware loads or initializes a session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, ok := s.read(r)
		if !ok {
			sd = &SessionData{
				ID:        uuid.NewString(),
				CSRFToken: newCSRFToken(),
				CreatedAt: s.now().UTC(),
			}
			s.write(w, sd)
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sd)))
	})
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return nil, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return nil, false
	}
	if _, err := uuid.Parse(sd.ID); err != nil || sd.CSRFToken == "" {
		return nil, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	http.SetCookie(w, s.Cookie(sd))
}

// Cookie returns the signed cookie for sd.
func (s *Sessions) Cookie(sd *SessionData) *http.Cookie {
	b, _ := json.Marshal(sd)
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(s.sign(b))
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(sessionTTL),
	}
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
