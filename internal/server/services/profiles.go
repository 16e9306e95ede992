package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

const (
	maxNameLength   = 100
	msgNameTooLong  = "Ensure this field has no more than 100 characters."
	msgInvalidPhone = "Enter a valid phone number."
	msgBadImage     = "Upload a valid image. Allowed extensions are: gif, jpeg, jpg, png, webp."
)

var avatarExtensions = map[string]struct{}{
	".gif": {}, ".jpeg": {}, ".jpg": {}, ".png": {}, ".webp": {},
}

// ProfileUpdate is a partial profile change; nil fields are left as they
// are. An empty phone number clears it.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

// AvatarUpload tells the client where to PUT its avatar.
type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ProfileService reads and edits the personal data attached to a user.
type ProfileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	avatars       AvatarStore
	mediaRoot     string
	defaultRegion string
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, avatars AvatarStore, mediaRoot, defaultRegion string) *ProfileService {
	return &ProfileService{
		db:            db,
		repomanager:   m,
		avatars:       avatars,
		mediaRoot:     strings.TrimSuffix(mediaRoot, "/"),
		defaultRegion: defaultRegion,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apierr.NotFound("Profile not found.").WithCause(err)
		}
		return nil, err
	}
	return p, nil
}

// Update validates u and writes it over the stored profile.
func (s *ProfileService) Update(ctx context.Context, userID string, u ProfileUpdate) (*models.Profile, error) {
	phone, err := s.validate(u)
	if err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.FirstName != nil {
		p.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = phone
	}

	return s.repomanager.Profiles(s.db).Update(ctx, p)
}

// validate returns the phone number in E.164 form, or nil when it is
// absent or cleared.
func (s *ProfileService) validate(u ProfileUpdate) (*string, error) {
	nameRule := validation.RuneLength(0, maxNameLength).Error(msgNameTooLong)

	errs := validation.Errors{}
	if u.FirstName != nil {
		errs["first_name"] = validation.Validate(strings.TrimSpace(*u.FirstName), nameRule)
	}
	if u.LastName != nil {
		errs["last_name"] = validation.Validate(strings.TrimSpace(*u.LastName), nameRule)
	}

	var phone *string
	if u.PhoneNumber != nil && strings.TrimSpace(*u.PhoneNumber) != "" {
		formatted, err := s.normalizePhone(*u.PhoneNumber)
		if err != nil {
			errs["phone_number"] = err
		} else {
			phone = &formatted
		}
	}

	if err := errs.Filter(); err != nil {
		return nil, apierr.Validation(fieldMessages(err.(validation.Errors)))
	}
	return phone, nil
}

func (s *ProfileService) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), s.defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", errors.New(msgInvalidPhone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// AvatarUploadURL reserves a new object key for the user's avatar, stores
// it on the profile and returns a presigned upload URL for it.
func (s *ProfileService) AvatarUploadURL(ctx context.Context, userID, filename string) (*AvatarUpload, error) {
	if filename == "" {
		return nil, apierr.FieldValidation("filename", msgRequired)
	}
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := avatarExtensions[ext]; !ok {
		return nil, apierr.FieldValidation("filename", msgBadImage)
	}

	key := fmt.Sprintf("profile_avatar-%s-%s%s", userID, uuid.NewString(), ext)
	if s.mediaRoot != "" {
		key = s.mediaRoot + "/" + key
	}

	url, err := s.avatars.PresignPut(ctx, key)
	if err != nil {
		return nil, apierr.Unavailable("Avatar storage is unavailable.").WithCause(err)
	}

	if err := s.repomanager.Profiles(s.db).UpdateAvatar(ctx, userID, key); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apierr.NotFound("Profile not found.").WithCause(err)
		}
		return nil, err
	}

	return &AvatarUpload{Key: key, URL: url}, nil
}

// AvatarURL returns a download URL for the stored avatar, or "" when the
// profile has none.
func (s *ProfileService) AvatarURL(ctx context.Context, p *models.Profile) (string, error) {
	if p.Avatar == nil || *p.Avatar == "" {
		return "", nil
	}
	return s.avatars.PresignGet(ctx, *p.Avatar)
}

func fieldMessages(errs validation.Errors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for field, err := range errs {
		out[field] = []string{err.Error()}
	}
	return out
}
