package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mookzZ/fast-websockets/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a message. The database assigns the id and the
// canonical timestamp; both are reported back on the returned message.
func (r *GormMessageRepository) Create(ctx context.Context, chatID, senderID int64, content string) (*domain.Message, error) {
	model := domain.MessageModel{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForChat returns the chat's messages in ascending timestamp order,
// each carrying its sender's username.
func (r *GormMessageRepository) ListForChat(ctx context.Context, chatID int64) ([]domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("timestamp ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	messages := make([]domain.Message, 0, len(models))
	for i := range models {
		messages = append(messages, *models[i].ToDomain())
	}
	return messages, nil
}
