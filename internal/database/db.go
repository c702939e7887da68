package database

import "context"

// Default list limits per record kind.
const (
	DefaultMetricLimit = 50
	DefaultDreamLimit  = 20
	DefaultChatLimit   = 50
)

// DB is the record store used by the engine and the API.
// Every record operation is scoped to a single user.
type DB interface {
	UserDB
	MetricDB
	DreamDB
	ChatDB
	SettingsDB

	// CountRecords returns per kind record counts for a user.
	CountRecords(ctx context.Context, userID uint) (*RecordCounts, error)
	Close() error
}

type UserDB interface {
	CreateUser(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetOrCreateUser(ctx context.Context, username string) (*User, error)
}

type MetricDB interface {
	// CreateMetricSample stores a sample. ID, UserID and Timestamp are assigned by the store.
	CreateMetricSample(ctx context.Context, userID uint, sample MetricSample) (*MetricSample, error)
	// ListMetricSamples returns the newest samples first, at most limit of them.
	ListMetricSamples(ctx context.Context, userID uint, limit int) ([]MetricSample, error)
}

type DreamDB interface {
	CreateDreamRecord(ctx context.Context, userID uint, dream DreamRecord) (*DreamRecord, error)
	// ListDreamRecords returns the newest records first, at most limit of them.
	ListDreamRecords(ctx context.Context, userID uint, limit int) ([]DreamRecord, error)
}

type ChatDB interface {
	CreateChatMessage(ctx context.Context, userID uint, text string, isFromUser bool) (*ChatMessage, error)
	// CreateChatExchange stores a user message and the assistant reply atomically.
	CreateChatExchange(ctx context.Context, userID uint, message, reply string) (*ChatMessage, *ChatMessage, error)
	// ListChatMessages returns the newest limit messages in conversational (oldest first) order.
	ListChatMessages(ctx context.Context, userID uint, limit int) ([]ChatMessage, error)
}

type SettingsDB interface {
	// UpsertSettings merges patch over the stored settings (or the defaults) and returns the result.
	UpsertSettings(ctx context.Context, userID uint, patch SettingsPatch) (*UserSettings, error)
	// GetSettings returns nil without error if the user has no settings yet.
	GetSettings(ctx context.Context, userID uint) (*UserSettings, error)
}
