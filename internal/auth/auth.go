package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"directoryhub/backend/internal/config"
	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

// DevEmail is the identity used when authentication is bypassed in DEV.
const DevEmail = "dev@localhost"

const tenantCacheTTL = 5 * time.Minute

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Auth contains configuration and helpers for performing OpenID Connect
// authentication with an Okta tenant.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	tenants      repository.TenantStore
	tenantCache  *cache.Cache
	logger       Logger
	adminGroup   string
	adminEmails  map[string]bool
	devMode      bool
	authBypass   bool
}

// New creates a new Auth object using values from the application
// configuration. It establishes a connection to the provider and prepares an
// ID token verifier.
func New(ctx context.Context, cfg *config.Config, tenants repository.TenantStore, logger Logger) (*Auth, error) {
	isDev := cfg.IsDev()
	shouldBypass := isDev && cfg.DevModeBypass

	var oauth2Config *oauth2.Config
	var verifier *oidc.IDTokenVerifier
	var apiVerifier *oidc.IDTokenVerifier

	if !shouldBypass {
		if cfg.Auth.OktaDomain == "" || cfg.Auth.ClientID == "" ||
			cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
			return nil, errors.New("auth configuration is incomplete")
		}

		provider, err := oidc.NewProvider(ctx, cfg.Auth.OktaDomain)
		if err != nil {
			return nil, err
		}

		oauth2Config = &oauth2.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.Auth.RedirectURL,
			Scopes:       []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeGroups},
		}

		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})

		// Access tokens carry the authorization server audience, not the client id.
		apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	}

	a := &Auth{
		oauth2Config: oauth2Config,
		verifier:     verifier,
		apiVerifier:  apiVerifier,
		tenants:      tenants,
		tenantCache:  cache.New(tenantCacheTTL, 2*tenantCacheTTL),
		logger:       logger,
		adminGroup:   cfg.Auth.AdminGroup,
		devMode:      isDev,
		authBypass:   shouldBypass,
	}
	a.setAdminEmails(cfg.Auth.AdminEmails)
	return a, nil
}

func (a *Auth) setAdminEmails(emails []string) {
	a.adminEmails = make(map[string]bool, len(emails))
	for _, e := range emails {
		a.adminEmails[strings.ToLower(strings.TrimSpace(e))] = true
	}
}

// LoginHandler initiates the OAuth2 authorization code flow by redirecting the
// user to the Okta authorization endpoint. A random state value is stored in a
// cookie to mitigate CSRF attacks.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		Secure:   !a.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler handles the redirect back from Okta. It verifies the state
// parameter, exchanges the code for tokens, validates the ID token, and sets a
// session cookie containing the raw ID token.
func (a *Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie("oauthstate")
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token in token response", http.StatusInternalServerError)
		return
	}

	if _, err := a.verifier.Verify(r.Context(), rawIDToken); err != nil {
		http.Error(w, "failed to verify id token", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "id_token",
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
		Secure:   !a.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type identityClaims struct {
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
}

// RequireAuth is middleware that ensures a valid bearer token or ID token
// cookie is present, then places the caller's tenant and principal in the
// request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var claims identityClaims

		if a.authBypass {
			claims.Email = DevEmail
		} else {
			var token *oidc.IDToken
			var err error

			// Check for Authorization header first (for Swagger/API clients)
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				rawToken := strings.TrimPrefix(authHeader, "Bearer ")
				token, err = a.apiVerifier.Verify(r.Context(), rawToken)
				if err != nil {
					http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
					return
				}
			} else {
				cookie, err := r.Cookie("id_token")
				if err != nil {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				token, err = a.verifier.Verify(r.Context(), cookie.Value)
				if err != nil {
					http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
					return
				}
			}

			if err := token.Claims(&claims); err != nil {
				http.Error(w, "failed to parse token claims", http.StatusUnauthorized)
				return
			}
		}

		email := strings.ToLower(strings.TrimSpace(claims.Email))
		parts := strings.Split(email, "@")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			http.Error(w, "invalid email format in token", http.StatusUnauthorized)
			return
		}

		tenant, err := a.resolveTenant(r.Context(), parts[1])
		if err != nil {
			if a.logger != nil {
				a.logger.Error("failed to provision tenant", "domain", parts[1], "error", err)
			}
			http.Error(w, "failed to provision tenant: "+err.Error(), http.StatusInternalServerError)
			return
		}

		principal := tenancy.Principal{
			Email: email,
			Admin: a.authBypass || a.adminEmails[email] || (a.adminGroup != "" && slices.Contains(claims.Groups, a.adminGroup)),
		}

		ctx := tenancy.WithTenant(r.Context(), tenant.ID)
		ctx = tenancy.WithPrincipal(ctx, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers that RequireAuth did not mark as admin.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := tenancy.PrincipalFrom(r.Context())
		if !ok {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		if !p.Admin {
			http.Error(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveTenant looks the tenant up by email domain, creating it on first
// sight. Results are cached.
func (a *Auth) resolveTenant(ctx context.Context, domain string) (*models.Tenant, error) {
	if a.tenantCache == nil {
		a.tenantCache = cache.New(tenantCacheTTL, 2*tenantCacheTTL)
	}
	if cached, ok := a.tenantCache.Get(domain); ok {
		return cached.(*models.Tenant), nil
	}

	tenant, err := a.tenants.GetTenantByDomain(ctx, domain)
	if err != nil {
		tenant = &models.Tenant{Name: domain, Domain: domain}
		if createErr := a.tenants.CreateTenant(ctx, tenant); createErr != nil {
			if !errors.Is(createErr, repository.ErrConflict) {
				return nil, createErr
			}
			// lost a provisioning race; the winner's row is there now
			if tenant, err = a.tenants.GetTenantByDomain(ctx, domain); err != nil {
				return nil, err
			}
		}
		if a.logger != nil {
			a.logger.Info("tenant provisioned", "domain", domain, "tenant_id", tenant.ID)
		}
	}

	a.tenantCache.Set(domain, tenant, cache.DefaultExpiration)
	return tenant, nil
}

// LogoutHandler clears the session cookie and redirects to the home page.
func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "id_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
