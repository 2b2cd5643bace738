package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberai/server/internal/models"
)

// Memory is the default Store: plain maps and slices guarded by one mutex.
// Messages are kept in insertion order, which also serves as the tie-break
// when timestamps collide.
type Memory struct {
	mu            sync.Mutex
	users         map[string]*models.User
	conversations map[string]*models.Conversation
	convSeq       map[string]int
	nextSeq       int
	messages      []models.Message
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*models.Conversation),
		convSeq:       make(map[string]int),
	}
}

func (s *Memory) GetUser(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *Memory) GetUserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) CreateUser(username, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.users[user.ID] = user

	u := *user
	return &u, nil
}

func (s *Memory) CreateConversation(title string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &models.Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	s.conversations[conv.ID] = conv
	s.convSeq[conv.ID] = s.nextSeq
	s.nextSeq++

	c := *conv
	return &c, nil
}

func (s *Memory) GetAllConversations() ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations := make([]models.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		conversations = append(conversations, *conv)
	}
	// Newest first; insertion order breaks timestamp ties.
	sort.SliceStable(conversations, func(i, j int) bool {
		if !conversations[i].CreatedAt.Equal(conversations[j].CreatedAt) {
			return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
		}
		return s.convSeq[conversations[i].ID] > s.convSeq[conversations[j].ID]
	})
	return conversations, nil
}

func (s *Memory) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	delete(s.convSeq, id)

	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.ConversationID != id {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
	return nil
}

func (s *Memory) CreateMessage(conversationID, role, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now(),
	}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *Memory) GetMessagesByConversation(conversationID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]models.Message, 0)
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}
