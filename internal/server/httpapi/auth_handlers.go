package httpapi

import (
	"errors"
	"net/http"

	"filevault/internal/common"
	"filevault/internal/server/models"
	"filevault/internal/server/services"
)

type formError struct {
	Error string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "index", struct{ User *models.User }{User: s.currentUser(r)})
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "register", formError{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, "register", formError{Error: "Malformed form."})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := s.users.Register(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			s.renderPage(w, http.StatusBadRequest, "register", formError{Error: "Email and password are required."})
		case errors.Is(err, common.ErrorAlreadyExists):
			s.renderPage(w, http.StatusBadRequest, "register", formError{Error: "Email already exists."})
		default:
			s.logger.Error(r.Context(), "registration failed", "error", err)
			s.renderPage(w, http.StatusInternalServerError, "register", formError{Error: "An error occurred during registration."})
		}
		return
	}

	if err := s.establishSession(w, user.ID); err != nil {
		s.logger.Error(r.Context(), "session setup failed", "error", err)
		s.renderPage(w, http.StatusInternalServerError, "register", formError{Error: "An error occurred during registration."})
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", email)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "login", formError{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, "login", formError{Error: "Malformed form."})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := s.users.Authenticate(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIncorrectEmail):
			s.renderPage(w, http.StatusUnauthorized, "login", formError{Error: "Incorrect email."})
		case errors.Is(err, services.ErrIncorrectPassword):
			s.renderPage(w, http.StatusUnauthorized, "login", formError{Error: "Incorrect password."})
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			s.renderPage(w, http.StatusInternalServerError, "login", formError{Error: "An error occurred during login."})
		}
		return
	}

	if err := s.establishSession(w, user.ID); err != nil {
		s.logger.Error(r.Context(), "session setup failed", "error", err)
		s.renderPage(w, http.StatusInternalServerError, "login", formError{Error: "An error occurred during login."})
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
