package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// Claims carries the authenticated principal inside the JWT.
type Claims struct {
	AccountID int    `json:"accountId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// AuthHandler provides registration, login, and token middleware.
type AuthHandler struct {
	identity *services.IdentityService
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(identity *services.IdentityService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, identity *services.IdentityService, jwtSecret string) {
	handler := NewAuthHandler(identity, jwtSecret)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(RequireAuth(jwtSecret)).Get("/me", handler.Me)
}

// RequireAuth validates the bearer token and injects the principal into
// the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			principal, err := parseToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects authenticated principals whose role is not listed.
func RequireRoles(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

type RegisterRequest struct {
	Role           string   `json:"role" validate:"required,oneof=student lecturer helper"`
	UserID         string   `json:"userId" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	Year           string   `json:"year"`
	Semester       string   `json:"semester"`
	Name           string   `json:"name"`
	GraduationYear int      `json:"graduationYear"`
	Skills         []string `json:"skills"`
	ExpertiseLevel string   `json:"expertiseLevel"`
}

type LoginRequest struct {
	Role     string `json:"role" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    types.Principal `json:"user"`
}

// Register creates a new account. Admin accounts are provisioned from
// the CLI, not through this endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	err := h.identity.Register(r.Context(), services.RegisterInput{
		Role:           types.Role(req.Role),
		ExternalID:     req.UserID,
		Email:          req.Email,
		Password:       req.Password,
		Year:           req.Year,
		Semester:       req.Semester,
		Name:           req.Name,
		GraduationYear: req.GraduationYear,
		Skills:         req.Skills,
		ExpertiseLevel: req.ExpertiseLevel,
	})
	if err != nil {
		writeServiceError(w, err, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Registration successful"})
}

// Login verifies credentials and returns a JWT. An unknown account
// answers 404 and a bad password 401, so clients can tell the cases
// apart.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	principal, err := h.identity.Login(r.Context(), types.Role(req.Role), req.UserID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "Invalid password")
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	token, err := issueToken(principal, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    principal,
	})
}

// Me returns the current principal's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.identity.GetProfile(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func issueToken(principal types.Principal, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: principal.ID,
		UserID:    principal.ExternalID,
		Role:      string(principal.Role),
		Email:     principal.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ExternalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (types.Principal, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return types.Principal{}, err
	}
	if !token.Valid {
		return types.Principal{}, errors.New("invalid token")
	}

	role := types.Role(claims.Role)
	if strings.TrimSpace(claims.UserID) == "" || !role.Valid() {
		return types.Principal{}, errors.New("malformed claims")
	}
	return types.Principal{
		ID:         claims.AccountID,
		ExternalID: claims.UserID,
		Role:       role,
		Email:      claims.Email,
	}, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
