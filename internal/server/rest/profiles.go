package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
)

type profileResponse struct {
	*models.Profile
	AvatarURL string `json:"avatar_url,omitempty"`
}

type avatarRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, p *models.Profile) error {
	url, err := s.svc.Profiles.AvatarURL(r.Context(), p)
	if err != nil {
		// the profile is still useful without a download link
		s.logger.Warn(r.Context(), "avatar url", "error", err)
	}
	respondJSON(w, http.StatusOK, profileResponse{Profile: p, AvatarURL: url})
	return nil
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) error {
	p, err := s.svc.Profiles.Get(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	return s.renderProfile(w, r, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var req services.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	p, err := s.svc.Profiles.Update(r.Context(), currentUser(r.Context()).ID, req)
	if err != nil {
		return err
	}
	return s.renderProfile(w, r, p)
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) error {
	var req avatarRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	up, err := s.svc.Profiles.AvatarUploadURL(r.Context(), currentUser(r.Context()).ID, req.Filename)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, up)
	return nil
}
