package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
)

const (
	claimRole     = "role"
	claimUsername = "username"
)

// Sessions issues and verifies the signed session cookie.
type Sessions struct {
	key    []byte
	ttl    time.Duration
	cookie string
	secure bool
	now    func() time.Time
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	return &Sessions{
		key:    []byte(cfg.Secret),
		ttl:    cfg.TTL,
		cookie: cfg.CookieName,
		secure: cfg.SecureCookie,
		now:    time.Now,
	}
}

func (s *Sessions) Issue(w http.ResponseWriter, ident models.Identity) error {
	now := s.now()

	tok := jwt.New()
	for k, v := range map[string]any{
		jwt.SubjectKey:    strconv.FormatInt(ident.UserId, 10),
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(s.ttl),
		claimRole:         ident.Role.String(),
		claimUsername:     ident.Username,
	} {
		if err := tok.Set(k, v); err != nil {
			return fmt.Errorf("auth.Sessions.Issue: %w", err)
		}
	}

	signed, err := jwt.Sign(tok, jwa.HS256, s.key)
	if err != nil {
		return fmt.Errorf("auth.Sessions.Issue: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    string(signed),
		Path:     "/",
		Expires:  now.Add(s.ttl),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve returns the identity carried by the request's session cookie.
func (s *Sessions) Resolve(r *http.Request) (models.Identity, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		return models.Identity{}, models.ErrUnauthenticated
	}

	tok, err := jwt.Parse([]byte(c.Value),
		jwt.WithVerify(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("auth.Sessions.Resolve: %w: %w", models.ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil {
		return models.Identity{}, fmt.Errorf("auth.Sessions.Resolve: %w: bad subject", models.ErrUnauthenticated)
	}

	roleClaim, _ := tok.Get(claimRole)
	roleStr, _ := roleClaim.(string)
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return models.Identity{}, fmt.Errorf("auth.Sessions.Resolve: %w: bad role", models.ErrUnauthenticated)
	}

	nameClaim, _ := tok.Get(claimUsername)
	name, _ := nameClaim.(string)

	return models.Identity{UserId: id, Username: name, Role: role}, nil
}
