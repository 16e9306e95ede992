package profiles

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// Repository persists user profiles. A missing profile is common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, userID, avatar string) error
}
