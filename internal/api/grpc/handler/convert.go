package handler

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/authd/internal/model"
)

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func boolField(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

func accountValue(a model.Account) map[string]any {
	return map[string]any{
		"id":         a.ID.String(),
		"email":      a.Email,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func sessionValue(s model.Session) map[string]any {
	return map[string]any{
		"id":         s.ID.String(),
		"account_id": s.AccountID.String(),
		"user_agent": s.UserAgent,
		"ip_address": s.IPAddress,
		"created_at": s.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expires_at": s.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

func sessionsValue(sessions []model.Session) []any {
	out := make([]any, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionValue(s))
	}
	return out
}
