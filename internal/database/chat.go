package database

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index:idx_chat_user_time,priority:1;not null"`
	Timestamp  time.Time `gorm:"index:idx_chat_user_time,priority:2;not null"`
	Text       string    `gorm:"type:text;not null"`
	IsFromUser bool      `gorm:"not null"`
}

func (c *Client) CreateChatMessage(ctx context.Context, userID uint, text string, isFromUser bool) (*ChatMessage, error) {
	msg := ChatMessage{
		UserID:     userID,
		Timestamp:  c.clock.Next(),
		Text:       text,
		IsFromUser: isFromUser,
	}
	if err := c.db.WithContext(ctx).Create(&msg).Error; err != nil {
		log.Error("failed to create chat message", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return &msg, nil
}

func (c *Client) CreateChatExchange(ctx context.Context, userID uint, message, reply string) (*ChatMessage, *ChatMessage, error) {
	userMsg := ChatMessage{UserID: userID, Text: message, IsFromUser: true}
	assistantMsg := ChatMessage{UserID: userID, Text: reply}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userMsg.Timestamp = c.clock.Next()
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		assistantMsg.Timestamp = c.clock.Next()
		return tx.Create(&assistantMsg).Error
	})
	if err != nil {
		log.Error("failed to create chat exchange", "user_id", userID, "error", err)
		return nil, nil, storageErr(err)
	}
	return &userMsg, &assistantMsg, nil
}

func (c *Client) ListChatMessages(ctx context.Context, userID uint, limit int) ([]ChatMessage, error) {
	messages := []ChatMessage{}
	// newest first to apply the limit to the tail, then flip back to conversational order
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit, DefaultChatLimit)).
		Find(&messages).Error; err != nil {
		log.Error("failed to list chat messages", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	slices.Reverse(messages)
	return messages, nil
}
