package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/golang-jwt/jwt/v5"

	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/user"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

const sessionIssuer = "snapchallenge"

// UserResolver maps a verified token subject to a local identity.
type UserResolver interface {
	ResolveClerkUser(ctx context.Context, clerkID string) (user.Identity, error)
	ResolveUser(ctx context.Context, userID string) (user.Identity, error)
}

// Authenticator accepts HS256 session tokens signed with the session secret
// and, when Clerk is configured, Clerk session JWTs.
type Authenticator struct {
	resolver      UserResolver
	sessionSecret []byte
	verifyClerk   func(ctx context.Context, token string) (string, error)
}

func NewAuthenticator(resolver UserResolver, sessionSecret string, clerkEnabled bool) *Authenticator {
	a := &Authenticator{resolver: resolver}
	if sessionSecret != "" {
		a.sessionSecret = []byte(sessionSecret)
	}
	if clerkEnabled {
		a.verifyClerk = verifyClerkToken
	}
	return a
}

func verifyClerkToken(ctx context.Context, token string) (string, error) {
	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssueSessionToken signs a session token for userID.
func IssueSessionToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is not set")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (a *Authenticator) parseSessionToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.sessionSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Identify resolves the bearer token to a local identity.
func (a *Authenticator) Identify(ctx context.Context, token string) (user.Identity, error) {
	var sessionErr error
	if a.sessionSecret != nil {
		userID, err := a.parseSessionToken(token)
		if err == nil {
			return a.resolver.ResolveUser(ctx, userID)
		}
		sessionErr = err
	}

	if a.verifyClerk != nil {
		clerkID, err := a.verifyClerk(ctx, token)
		if err != nil {
			return user.Identity{}, fmt.Errorf("invalid token: %w", err)
		}
		return a.resolver.ResolveClerkUser(ctx, clerkID)
	}

	if sessionErr != nil {
		return user.Identity{}, fmt.Errorf("invalid token: %w", sessionErr)
	}
	return user.Identity{}, errors.New("no token verifier configured")
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		id, err := a.Identify(r.Context(), token)
		if err != nil {
			logger.Warn("Auth: token rejected: %v", err)
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !IsAdmin(r.Context()) {
			respondWithError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id.UserID)
	return context.WithValue(ctx, RoleKey, id.Role)
}

// GetUserID extracts the internal user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(RoleKey).(string)
	return role == user.RoleAdmin
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
