package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gigchat/internal/store"
)

// Schema is the database layout applied on startup. Conversations are
// keyed uniquely by their canonical ID; messages are indexed by
// conversation and by (recipient, read) for unread counting.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	avatar_url    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversations (
	id                TEXT PRIMARY KEY,
	participant_a     TEXT NOT NULL,
	participant_b     TEXT NOT NULL,
	last_message      TEXT NOT NULL DEFAULT '',
	last_message_date DATETIME NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (participant_a) REFERENCES users(id),
	FOREIGN KEY (participant_b) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	sender_id       TEXT NOT NULL,
	recipient_id    TEXT NOT NULL,
	body            TEXT NOT NULL,
	read            BOOLEAN NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id),
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (recipient_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(recipient_id, read);
CREATE INDEX IF NOT EXISTS idx_conversations_participants ON conversations(participant_a, participant_b);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *store.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, display_name, avatar_url)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.DisplayName, u.AvatarURL); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateUserProfile updates display name and avatar URL.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id, displayName, avatarURL string) error {
	query := `
		UPDATE users SET display_name = ?, avatar_url = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query, displayName, avatarURL, id)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SearchUsers searches for users by username or display name.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	stmt := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE username LIKE ? OR display_name LIKE ?
		ORDER BY username
		LIMIT 50
	`
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, stmt, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// ==== ConversationStore implementation ====

// UpsertConversation creates the conversation row for the pair if absent,
// otherwise overwrites last message and date. Last write wins.
func (s *SQLiteStore) UpsertConversation(ctx context.Context, id, participantA, participantB, lastMessage string, at time.Time) error {
	query := `
		INSERT INTO conversations (id, participant_a, participant_b, last_message, last_message_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_message = excluded.last_message,
			last_message_date = excluded.last_message_date
	`
	if _, err := s.db.ExecContext(ctx, query, id, participantA, participantB, lastMessage, at); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by its canonical ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, last_message, last_message_date, created_at
		FROM conversations
		WHERE id = ?
	`
	var c store.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.ParticipantA,
		&c.ParticipantB,
		&c.LastMessage,
		&c.LastMessageDate,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return &c, nil
}

// ListConversations returns the user's conversations annotated with the
// other participant and a freshly computed unread count, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	query := `
		SELECT c.id, c.participant_a, c.participant_b, c.last_message, c.last_message_date, c.created_at,
		       u.id, u.username, u.display_name, u.avatar_url, u.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conversation_id = c.id AND m.recipient_id = ? AND m.read = 0) AS unread
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.participant_a = ? THEN c.participant_b ELSE c.participant_a END
		WHERE c.participant_a = ? OR c.participant_b = ?
		ORDER BY c.last_message_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []*store.ConversationSummary
	for rows.Next() {
		var cs store.ConversationSummary
		var other store.User
		if err := rows.Scan(
			&cs.ID,
			&cs.ParticipantA,
			&cs.ParticipantB,
			&cs.LastMessage,
			&cs.LastMessageDate,
			&cs.Conversation.CreatedAt,
			&other.ID,
			&other.Username,
			&other.DisplayName,
			&other.AvatarURL,
			&other.CreatedAt,
			&cs.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		cs.Other = &other
		summaries = append(summaries, &cs)
	}
	return summaries, rows.Err()
}

// ==== MessageStore implementation ====

// InsertMessage persists a message.
func (s *SQLiteStore) InsertMessage(ctx context.Context, m *store.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, recipient_id, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.RecipientID, m.Body, m.Read, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns all messages in a conversation, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, recipient_id, body, read, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// MarkConversationRead flips read on the recipient's unread messages in
// the conversation. Idempotent.
func (s *SQLiteStore) MarkConversationRead(ctx context.Context, conversationID, recipientID string) (int64, error) {
	query := `
		UPDATE messages SET read = 1
		WHERE conversation_id = ? AND recipient_id = ? AND read = 0
	`
	res, err := s.db.ExecContext(ctx, query, conversationID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// CountUnread counts unread messages addressed to recipientID.
func (s *SQLiteStore) CountUnread(ctx context.Context, conversationID, recipientID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = ? AND recipient_id = ? AND read = 0
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, conversationID, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
