package store

import (
	"context"
	"sync"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
)

// MemoryStore 进程内存储，不落盘
type MemoryStore struct {
	mu       sync.Mutex
	messages []chat.Message
}

func NewMemoryStore(messages ...chat.Message) *MemoryStore {
	return &MemoryStore{messages: messages}
}

func (s *MemoryStore) Kind() string {
	return "memory"
}

func (s *MemoryStore) Load(ctx context.Context) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return nil, nil
	}
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, messages []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]chat.Message, len(messages))
	copy(s.messages, messages)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
