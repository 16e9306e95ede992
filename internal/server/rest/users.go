package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type changeEmailRequest struct {
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := s.svc.Users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Email: user.Email})
	return nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	respondJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) error {
	user, err := s.svc.Users.Get(r.Context(), chi.URLParam(r, paramID))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
	return nil
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user := currentUser(r.Context())
	if err := s.svc.Mutations.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	respondNoContent(w)
	return nil
}

func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) error {
	var req changeEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user := currentUser(r.Context())
	if err := s.svc.Mutations.ChangeEmail(r.Context(), user.ID, req.OldEmail, req.NewEmail); err != nil {
		return err
	}

	respondNoContent(w)
	return nil
}
