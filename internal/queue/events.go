package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the chat sync stream
const (
	EventUserUpserted = "user_upserted"
	EventUserDeleted  = "user_deleted"
)

// Stream names
const (
	StreamChatSync = "stream:chat-sync"
)

// Consumer group name for chat sync workers
const (
	ConsumerGroupChatSync = "chat_sync_workers"
)

// UserEvent mirrors an account change onto the chat provider.
type UserEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Image  string `json:"image,omitempty"`
}

func NewUserUpsertedEvent(userID int64, name, image string) UserEvent {
	return UserEvent{
		Type:      EventUserUpserted,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Name:      name,
		Image:     image,
	}
}

func NewUserDeletedEvent(userID int64) UserEvent {
	return UserEvent{
		Type:      EventUserDeleted,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so the event is serialised into a "data" field.
func (e UserEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseUserEvent parses a UserEvent from Redis stream message values.
func ParseUserEvent(values map[string]interface{}) (UserEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return UserEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event UserEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return UserEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
