package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gigchat/internal/auth"
	"gigchat/internal/chat"
	"gigchat/internal/config"
	"gigchat/internal/live"
	"gigchat/internal/presence"
	"gigchat/internal/store"
	"gigchat/internal/store/sqlite"
)

// newTestServer wires a full server over an in-memory store.
func newTestServer(t *testing.T) (*stdhttp.Server, *auth.Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)
	chats := chat.NewService(st)

	disabledLogger := zerolog.New(nil)

	registry := presence.NewRegistry[*live.Session]()
	coordinator := live.NewCoordinator(registry, chats, authService, &disabledLogger)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"

	server := NewServer(&cfg, authService, chats, st, coordinator, &disabledLogger)
	return server, authService, st
}
