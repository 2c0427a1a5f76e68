package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mookzZ/fast-websockets/internal/domain"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// Create creates a new chat and assigns its id.
func (r *GormChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	model := domain.ChatModel{
		IsGroupChat: chat.IsGroupChat,
		CreatorID:   chat.CreatorID,
	}
	if chat.Name != "" {
		model.Name = &chat.Name
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	chat.ID = model.ID
	chat.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a chat with its members and their usernames.
func (r *GormChatRepository) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	var model domain.ChatModel
	result := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Exists reports whether a chat with the given id exists.
func (r *GormChatRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.ChatModel{}).
		Where("id = ?", id).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ListForUser returns every chat the user is a member of.
func (r *GormChatRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error) {
	var models []domain.ChatModel
	result := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userID).
		Preload("Members").
		Preload("Members.User").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	chats := make([]domain.Chat, 0, len(models))
	for i := range models {
		chats = append(chats, *models[i].ToDomain())
	}
	return chats, nil
}

// FindPrivateChat looks up the 1:1 chat whose membership is exactly the
// two given users.
func (r *GormChatRepository) FindPrivateChat(ctx context.Context, userID1, userID2 int64) (*domain.Chat, error) {
	var model domain.ChatModel
	result := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chats.is_group_chat = ?", false).
		Where("chat_members.user_id IN ?", []int64{userID1, userID2}).
		Group("chats.id").
		Having("COUNT(DISTINCT chat_members.user_id) = 2").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}
	return r.GetByID(ctx, model.ID)
}

// AddMember adds a user to a chat. Adding an existing member returns the
// existing row.
func (r *GormChatRepository) AddMember(ctx context.Context, chatID, userID int64) (*domain.ChatMember, error) {
	var existing domain.ChatMemberModel
	err := r.db.WithContext(ctx).
		First(&existing, "chat_id = ? AND user_id = ?", chatID, userID).Error
	if err == nil {
		return existing.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	model := domain.ChatMemberModel{ChatID: chatID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// RemoveMember deletes a membership row.
func (r *GormChatRepository) RemoveMember(ctx context.Context, chatID, userID int64) error {
	result := r.db.WithContext(ctx).
		Delete(&domain.ChatMemberModel{}, "chat_id = ? AND user_id = ?", chatID, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// IsMember reports whether the user belongs to the chat.
func (r *GormChatRepository) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.ChatMemberModel{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ListMemberIDs returns the ids of every current chat member.
func (r *GormChatRepository) ListMemberIDs(ctx context.Context, chatID int64) ([]int64, error) {
	var ids []int64
	result := r.db.WithContext(ctx).
		Model(&domain.ChatMemberModel{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}
