package repository

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/DubFox/app/models"
)

// ErrEmptyAPIKey is returned when a save is attempted with an empty or
// whitespace-only key. The store is never touched in that case.
var ErrEmptyAPIKey = errors.New("api key must not be empty")

// credentialRepository implements the CredentialRepository interface
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository instance
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// GetByUserID retrieves the stored Dubverse credential for a user.
// Returns gorm.ErrRecordNotFound when no row exists.
func (r *credentialRepository) GetByUserID(userID uint) (*models.DubCredential, error) {
	var cred models.DubCredential
	err := r.db.Where("user_id = ?", userID).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Save upserts the credential for a user in a single statement keyed by
// user_id, so concurrent saves for the same user cannot race an existence
// check. Last write wins; only api_key and updated_at change on conflict.
func (r *credentialRepository) Save(userID uint, email, apiKey string) error {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return ErrEmptyAPIKey
	}

	tokenIdentifier := email
	if tokenIdentifier == "" {
		tokenIdentifier = "user:" + strconv.FormatUint(uint64(userID), 10)
	}

	cred := models.DubCredential{
		UserID:          userID,
		Email:           email,
		TokenIdentifier: tokenIdentifier,
		APIKey:          key,
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"api_key":    key,
			"updated_at": time.Now(),
		}),
	}).Create(&cred).Error
}
