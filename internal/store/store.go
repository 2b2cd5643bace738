// Package store holds users, conversations and messages behind a single
// interface so the backing implementation can be swapped without touching
// the handlers.
package store

import (
	"errors"

	"github.com/cyberai/server/internal/models"
)

// ErrNotFound is returned by lookups when no record matches.
var ErrNotFound = errors.New("not found")

type Store interface {
	GetUser(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(username, passwordHash string) (*models.User, error)

	CreateConversation(title string) (*models.Conversation, error)
	// GetAllConversations returns conversations newest-first.
	GetAllConversations() ([]models.Conversation, error)
	// DeleteConversation removes the conversation and all of its messages.
	// Deleting an unknown id is not an error.
	DeleteConversation(id string) error

	// CreateMessage accepts an empty conversationID for unattached messages.
	CreateMessage(conversationID, role, content string) (*models.Message, error)
	// GetMessagesByConversation returns messages oldest-first. An unknown
	// conversation id yields an empty slice, not an error.
	GetMessagesByConversation(conversationID string) ([]models.Message, error)
}
