package audit

import (
	"context"

	"github.com/mookzZ/fast-websockets/pkg/log"
)

// Audit actions.
const (
	ActionConnect      = "chat.connect"
	ActionAuthFailed   = "chat.auth_failed"
	ActionSendMessage  = "chat.send_message"
	ActionDisconnect   = "chat.disconnect"
	ActionInvite       = "chat.invite"
	ActionRemoveMember = "chat.remove_member"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID int64, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, userID int64, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
