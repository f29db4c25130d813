package memory

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/thefailures/jarvis/internal/types"
)

// MessageLog is the append-only collection of message records. It grows in
// lockstep with the vector store and shares its id space.
type MessageLog struct {
	mu       sync.RWMutex
	messages []types.Message
	path     string
}

// NewMessageLog creates a message log persisted at path
func NewMessageLog(path string) *MessageLog {
	return &MessageLog{path: path}
}

// Append adds a message to the log
func (l *MessageLog) Append(msg types.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// Get returns the message with the given id
func (l *MessageLog) Get(id int) (types.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 0 || id >= len(l.messages) {
		return types.Message{}, false
	}
	return l.messages[id], true
}

// All returns a snapshot of all messages in insertion order
func (l *MessageLog) All() []types.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Load reads messages from disk. A missing file leaves the log empty.
func (l *MessageLog) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var messages []types.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}
	l.messages = messages
	return nil
}

// Save writes messages to disk
func (l *MessageLog) Save() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	messages := l.messages
	if messages == nil {
		messages = []types.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}
