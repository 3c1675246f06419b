package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/middleware"
	"github.com/agrihealth-server/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := s.services.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = middleware.WithMessage(err, "User with this email or username already exists")
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(c, domain.NewValidationError("email", "Email and password are required", nil))
		return
	}

	user, token, err := s.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			err = middleware.WithMessage(err, "Invalid credentials")
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := s.services.Auth.Profile(c.Request.Context(), userID)
	if err != nil {
		fail(c, middleware.WithMessage(err, "User not found or invalid token."))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var update service.ProfileUpdate
	if !bindJSON(c, &update) {
		return
	}

	user, err := s.services.Auth.UpdateProfile(c.Request.Context(), userID, &update)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = middleware.WithMessage(err, "Username is already taken")
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
