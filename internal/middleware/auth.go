package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coursehub-backend/internal/log"
	"coursehub-backend/internal/models"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity provider error codes raised by token verification.
const (
	CodeIDTokenExpired = "auth/id-token-expired"
	CodeInvalidIDToken = "auth/invalid-id-token"
)

// ErrorMessageFunc maps an identity provider error code to a user-facing
// message.
type ErrorMessageFunc func(code string) string

// IDTokenClaims are the claims of the identity provider's ID token.
type IDTokenClaims struct {
	UserID   string `json:"user_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 ID tokens signed with a shared secret.
type Verifier struct {
	secret  []byte
	message ErrorMessageFunc
	now     func() time.Time
}

func NewVerifier(secret string, message ErrorMessageFunc) *Verifier {
	return &Verifier{secret: []byte(secret), message: message, now: time.Now}
}

// TokenError is returned by Verify with the provider code of the failure.
type TokenError struct {
	Code string
	Err  error
}

func (e *TokenError) Error() string { return e.Code + ": " + e.Err.Error() }

func (e *TokenError) Unwrap() error { return e.Err }

// Verify parses the token and returns the identity it carries.
func (v *Verifier) Verify(tokenStr string) (models.Identity, error) {
	claims := &IDTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, &TokenError{Code: CodeIDTokenExpired, Err: err}
		}
		return models.Identity{}, &TokenError{Code: CodeInvalidIDToken, Err: err}
	}

	userID := claims.Subject
	if userID == "" {
		userID = claims.UserID
	}
	if userID == "" || strings.ContainsAny(userID, ".`/") {
		return models.Identity{}, &TokenError{Code: CodeInvalidIDToken, Err: errors.New("token has no usable subject")}
	}

	return models.Identity{
		UserID:      userID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
		Provider:    claims.Provider,
	}, nil
}

// Sign issues a token for id valid for ttl. The identity provider signs
// tokens in production; this serves tests and local development.
func (v *Verifier) Sign(id models.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := IDTokenClaims{
		UserID:   id.UserID,
		Name:     id.DisplayName,
		Email:    id.Email,
		Picture:  id.PhotoURL,
		Provider: id.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware validates the bearer token and attaches the identity to the
// request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		id, err := v.Verify(parts[1])
		if err != nil {
			v.WriteTokenError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WriteTokenError answers 401 with the message mapped from the token failure.
func (v *Verifier) WriteTokenError(w http.ResponseWriter, r *http.Request, err error) {
	code := CodeInvalidIDToken
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		code = tokenErr.Code
	}
	apiCode := "UNAUTHORIZED"
	if code == CodeIDTokenExpired {
		apiCode = "TOKEN_EXPIRED"
	}
	msg := "Invalid token"
	if v.message != nil {
		msg = v.message(code)
	}
	writeError(w, http.StatusUnauthorized, apiCode, msg, r)
}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity returns the identity attached by Middleware.
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(models.Identity)
	return id, ok
}

// GetUserID returns the signed-in user's id, or "".
func GetUserID(ctx context.Context) string {
	id, _ := GetIdentity(ctx)
	return id.UserID
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := log.RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{Code: code, Message: message, RequestID: requestID},
	})
}
