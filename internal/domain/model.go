package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

// ChatModel is the GORM model for the chats table.
type ChatModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Name        *string   `gorm:"type:varchar(100)"`
	IsGroupChat bool      `gorm:"not null;default:false"`
	CreatorID   *int64    `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Members []ChatMemberModel `gorm:"foreignKey:ChatID"`
}

func (ChatModel) TableName() string {
	return "chats"
}

func (m *ChatModel) ToDomain() *Chat {
	chat := &Chat{
		ID:          m.ID,
		IsGroupChat: m.IsGroupChat,
		CreatorID:   m.CreatorID,
		CreatedAt:   m.CreatedAt,
	}
	if m.Name != nil {
		chat.Name = *m.Name
	}
	for i := range m.Members {
		chat.Members = append(chat.Members, *m.Members[i].ToDomain())
	}
	return chat
}

// ChatMemberModel is the GORM model for the chat_members table.
type ChatMemberModel struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	ChatID   int64     `gorm:"not null;uniqueIndex:idx_chat_user"`
	UserID   int64     `gorm:"not null;uniqueIndex:idx_chat_user"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	User UserModel `gorm:"foreignKey:UserID"`
}

func (ChatMemberModel) TableName() string {
	return "chat_members"
}

func (m *ChatMemberModel) ToDomain() *ChatMember {
	member := &ChatMember{
		ID:       m.ID,
		ChatID:   m.ChatID,
		UserID:   m.UserID,
		JoinedAt: m.JoinedAt,
	}
	if m.User.ID != 0 {
		member.Username = m.User.Username
	}
	return member
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"not null;index"`
	SenderID  int64     `gorm:"not null;index"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"autoCreateTime;index"`

	Sender UserModel `gorm:"foreignKey:SenderID"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) ToDomain() *Message {
	msg := &Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Sender.ID != 0 {
		msg.SenderUsername = m.Sender.Username
	}
	return msg
}

// Domain entities exposed to services and handlers.

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Chat struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name,omitempty"`
	IsGroupChat bool         `json:"is_group_chat"`
	CreatorID   *int64       `json:"creator_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Members     []ChatMember `json:"members,omitempty"`
}

type ChatMember struct {
	ID       int64     `json:"id"`
	ChatID   int64     `json:"chat_id"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ChatID         int64     `json:"chat_id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
