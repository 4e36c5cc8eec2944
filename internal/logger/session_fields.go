package logger

import "go.uber.org/zap"

const (
	FieldSession = "session_id"
	FieldStage   = "stage"
	FieldRound   = "round_type"
)

// SessionFields describes an interview session. Empty values are skipped.
func SessionFields(sessionID, stage string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSession, Value: sessionID},
		StringField{Key: FieldStage, Value: stage},
	)
}

func WithSession(logger *zap.Logger, sessionID, stage string) *zap.Logger {
	return WithFields(logger, SessionFields(sessionID, stage)...)
}
