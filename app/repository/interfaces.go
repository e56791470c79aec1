package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// CredentialRepository defines the interface for Dubverse credential storage.
// GetByUserID returns gorm.ErrRecordNotFound when no credential row exists;
// callers treat that as "absent", not as a failure.
type CredentialRepository interface {
	GetByUserID(userID uint) (*models.DubCredential, error)
	Save(userID uint, email, apiKey string) error
}

// SubscriptionRepository reads billing subscription rows. Rows are mutated
// exclusively by the external billing integration.
type SubscriptionRepository interface {
	ListByUserID(userID uint) ([]models.Subscription, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Credential   CredentialRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Credential:   NewCredentialRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
