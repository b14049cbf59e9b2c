package apifake

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/go-session-client/identity"
	"github.com/jrsteele09/go-session-client/internal/utils"
	"github.com/jrsteele09/go-session-client/users"
)

type ctxKey struct{}

type loginUser struct {
	ID       int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	User        loginUser `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "message": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) tokenFor(w http.ResponseWriter, a *Account) {
	tok, err := s.IssueToken(a.Profile.ID, s.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok,
		User:        loginUser{ID: a.Profile.ID, Username: a.Profile.Username, Email: a.Profile.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.accounts.byEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if a.PasswordHash == "" || !checkPasswordHash(req.Password, a.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}
	if !a.Verified {
		writeError(w, http.StatusForbidden, "email verification required")
		return
	}
	a.Profile.LastLoginAt = s.nowTime().UTC().Format(time.RFC3339)
	s.tokenFor(w, a)
}

func (s *Server) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider       identity.Provider `json:"provider"`
		ProviderUserID string            `json:"providerUserId"`
		Email          string            `json:"email"`
		Name           string            `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	cred := identity.Credential{Provider: req.Provider, ProviderUserID: req.ProviderUserID}
	if err := cred.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.accounts.bySocial(req.Provider, req.ProviderUserID)
	if err == nil {
		s.tokenFor(w, a)
		return
	}

	// First sign-in creates the account; terms still need to be accepted in-app.
	name := req.Name
	if name == "" || s.accounts.nameTaken(name, 0) {
		name = strings.ToLower(string(req.Provider)) + "_" + strconv.Itoa(s.accounts.nextID)
	}
	email := req.Email
	if email != "" && s.accounts.emailTaken(email) {
		writeError(w, http.StatusConflict, "email already registered with another sign-in method")
		return
	}
	a = &Account{
		Profile:        s.newProfile(name, email, 0),
		Verified:       true,
		Provider:       req.Provider,
		ProviderUserID: req.ProviderUserID,
	}
	if err := s.accounts.insert(a); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.tokenFor(w, a)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		CountryID int    `json:"country_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if users.ValidateEmail(req.Email) != nil || users.ValidateName(req.Name) != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid registration data")
		return
	}
	hash, err := hashPassword(req.Password, s.bcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := &Account{
		Profile:      s.newProfile(req.Name, req.Email, req.CountryID),
		PasswordHash: hash,
		Verified:     s.autoVerify,
	}
	// Registration captures consent.
	a.Profile.TermsAgreed = true
	a.Profile.PrivacyAgreed = true
	if err := s.accounts.insert(a); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "registered", "user_id": a.Profile.ID})
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.RLock()
	taken := s.accounts.emailTaken(req.Email)
	s.mu.RUnlock()
	if taken {
		writeError(w, http.StatusConflict, errEmailTaken.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "message": "email available"})
}

func (s *Server) handleCheckName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.RLock()
	taken := s.accounts.nameTaken(req.Name, 0)
	s.mu.RUnlock()
	if taken {
		writeError(w, http.StatusConflict, errNameTaken.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "message": "name available"})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": s.countries})
}

// requireBearer validates the access token and stores the account id on the request context.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tok, err := jwtlib.Parse(raw, func(*jwtlib.Token) (any, error) { return s.secret, nil },
			jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
			jwtlib.WithIssuer(issuer),
			jwtlib.WithTimeFunc(s.nowTime),
		)
		if err != nil || !tok.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		id, err := strconv.Atoi(sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) currentAccount(r *http.Request) (*Account, error) {
	id, _ := r.Context().Value(ctxKey{}).(int)
	return s.accounts.active(id)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, err := s.currentAccount(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, a.Profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username          *string `json:"username"`
		Bio               *string `json:"bio"`
		ProfilePictureURL *string `json:"profile_picture_url"`
		CountryID         *int    `json:"country_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.currentAccount(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if req.Username != nil {
		if users.ValidateName(*req.Username) != nil {
			writeError(w, http.StatusBadRequest, "invalid name")
			return
		}
		if err := s.accounts.rename(a, *req.Username); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	utils.Assign(&a.Profile.Bio, req.Bio)
	utils.Assign(&a.Profile.ProfilePictureURL, req.ProfilePictureURL)
	if req.CountryID != nil {
		for _, c := range s.countries {
			if c.ID == *req.CountryID {
				a.Profile.Country = c
			}
		}
	}
	writeJSON(w, http.StatusOK, a.Profile)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.currentAccount(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if a.PasswordHash != "" && !checkPasswordHash(req.Password, a.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}
	a.Deactivated = true
	writeJSON(w, http.StatusOK, map[string]any{"message": "account deactivated"})
}
