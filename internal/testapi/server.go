// Package testapi is an in-process stand-in for the TaskFlow REST API. It
// issues real signed tokens, checks them on the user endpoint and records
// what it was sent. It backs the package tests and the example console.
package testapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Task Manager API"

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	passwordHash string
}

// Server serves /auth/login, /users/{id} and /health under a prefix.
type Server struct {
	issuer *token.Issuer
	prefix string

	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string
	seen    []string
	hold    chan struct{}

	dbUp        atomic.Bool
	loginCalls  atomic.Int64
	userCalls   atomic.Int64
	healthCalls atomic.Int64

	router chi.Router
}

// New returns a Server whose routes live under prefix ("" or e.g. "/api").
func New(issuer *token.Issuer, prefix string) *Server {
	s := &Server{
		issuer:  issuer,
		prefix:  strings.TrimRight(prefix, "/"),
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
	s.dbUp.Store(true)

	r := chi.NewRouter()
	r.Use(s.recordAuthorization)
	route := func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Get("/users/{id}", s.getUser)
		r.Get("/health", s.health)
	}
	if s.prefix == "" {
		route(r)
	} else {
		r.Route(s.prefix, route)
	}
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account and returns it. An empty role becomes "member".
func (s *Server) AddUser(name, email, password, role string) *User {
	if role == "" {
		role = "member"
	}
	hash, err := hashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("testapi: hash password: %v", err))
	}
	now := time.Now().UTC().Truncate(time.Second)
	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
		passwordHash: hash,
	}

	s.mu.Lock()
	s.users[u.ID] = u
	s.byEmail[strings.ToLower(email)] = u.ID
	s.mu.Unlock()
	return u
}

// SetDatabase switches the reported database state.
func (s *Server) SetDatabase(up bool) {
	s.dbUp.Store(up)
}

// HoldUsers makes the user endpoint block until the returned function is called.
func (s *Server) HoldUsers() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.hold == ch {
				s.hold = nil
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// AuthorizationHeaders returns the Authorization header of every request
// received, in order. Requests without the header record "<none>".
func (s *Server) AuthorizationHeaders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.seen...)
}

func (s *Server) LoginCalls() int64  { return s.loginCalls.Load() }
func (s *Server) UserCalls() int64   { return s.userCalls.Load() }
func (s *Server) HealthCalls() int64 { return s.healthCalls.Load() }

func (s *Server) recordAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := r.Header["Authorization"]
		h := "<none>"
		if ok && len(v) > 0 {
			h = v[0]
		}
		s.mu.Lock()
		s.seen = append(s.seen, h)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	s.mu.RLock()
	u := s.users[s.byEmail[strings.ToLower(username)]]
	s.mu.RUnlock()
	if u == nil || !s.checkPassword(u, password) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	tok, err := s.issuer.Issue(u.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) checkPassword(u *User, password string) bool {
	ok, err := verifyPassword(password, u.passwordHash)
	return err == nil && ok
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.userCalls.Add(1)

	s.mu.RLock()
	hold := s.hold
	s.mu.RUnlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if _, err := s.issuer.Verify(raw); err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	s.mu.RLock()
	u := s.users[id]
	s.mu.RUnlock()
	if u == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.healthCalls.Add(1)
	if !s.dbUp.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"service":  ServiceName,
			"database": "disconnected - connection refused",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"service":  ServiceName,
		"database": "connected",
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
