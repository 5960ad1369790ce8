package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	authdomain "authapi/backend/internal/domain/auth"
	authusecase "authapi/backend/internal/usecase/auth"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/auth/signup", http.HandlerFunc(s.handleSignup))
	s.router.Handle("/auth/login", http.HandlerFunc(s.handleLogin))
	s.router.Handle("/auth/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload authusecase.SignupInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	if _, err := s.authService.Signup(r.Context(), payload); err != nil {
		switch {
		case errors.Is(err, authdomain.ErrEmailExists):
			writeError(w, http.StatusConflict, "Email already registered")
		case errors.Is(err, authdomain.ErrValidation),
			errors.Is(err, authdomain.ErrInvalidRole),
			errors.Is(err, authdomain.ErrEmptyPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, r, "signup failed", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := s.authService.Login(r.Context(), authdomain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, authdomain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(w, r, "login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":      claims.Subject,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads a bounded JSON body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthorized(w, "authorization token required")
			return
		}

		claims, err := s.authService.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, authdomain.ErrTokenExpired):
				writeUnauthorized(w, "token expired")
			case errors.Is(err, authdomain.ErrTokenMalformed):
				writeUnauthorized(w, "token malformed")
			case errors.Is(err, authdomain.ErrTokenInvalid):
				writeUnauthorized(w, "token invalid")
			default:
				s.internalError(w, r, "token validation failed", err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKeyClaims struct{}

func claimsFromContext(ctx context.Context) (*authdomain.Claims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims{}).(*authdomain.Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
