package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"crowdwatch/internal/config"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/model"
	"crowdwatch/internal/repository"
	"crowdwatch/internal/repository/sqlite"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new account.
func RegisterHandler(userRepo repository.UserRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "All fields are required")
			return
		}
		if len(req.Password) < 6 {
			writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}

		if _, err := userRepo.GetByEmail(req.Email); err == nil {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		} else if !errors.Is(err, sqlite.ErrUserNotFound) {
			log.Error("Registration lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Password hashing failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		user := &model.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hashed),
		}
		if _, err := userRepo.Insert(user); err != nil {
			log.Error("User insert failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

// LoginHandler authenticates an account and issues a bearer token.
func LoginHandler(userRepo repository.UserRepository, cfg *config.Config, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := userRepo.GetByEmail(req.Email)
		if err != nil {
			if !errors.Is(err, sqlite.ErrUserNotFound) {
				log.Error("Login lookup failed: %v", err)
			}
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := issueToken(user.ID, cfg.JWTSecret)
		if err != nil {
			log.Error("Token signing failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "Login successful",
			"token":    token,
			"username": user.Username,
		})
	}
}

// issueToken signs a token whose subject is the user ID.
func issueToken(userID int64, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(72 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
