package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"

	"agri-assist-be/internal/bootstrap"
	"agri-assist-be/internal/config"
	"agri-assist-be/internal/server"
	"agri-assist-be/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// TestChatTurnFlow exercises the full HTTP pipeline against a real database
// and whatever LLM provider the environment configures. It needs a reachable
// DB_CONNECTION_STRING; without one the test is skipped.
func TestChatTurnFlow(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	if os.Getenv("LLM_PROVIDER") == "" {
		os.Setenv("LLM_PROVIDER", "ollama")
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	// 1. Send a first message without a session id
	body, _ := json.Marshal(map[string]interface{}{
		"message": "When should I sow wheat in Punjab?",
		"context": map[string]interface{}{
			"location":  "Punjab",
			"crop_type": "wheat",
		},
	})
	req := httptest.NewRequest("POST", "/api/chat/v1/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 60000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var env envelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)

	var turn struct {
		SessionId  string `json:"session_id"`
		Durable    bool   `json:"durable"`
		BotMessage struct {
			Id   string `json:"id"`
			Text string `json:"text"`
		} `json:"bot_message"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &turn))
	assert.NotEmpty(t, turn.SessionId)
	assert.NotEmpty(t, turn.BotMessage.Text)
	assert.True(t, turn.Durable)

	// 2. History shows the paired turn
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/chat/v1/history/%s", turn.SessionId), nil)
	resp, err = app.Test(req, 10000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	env = envelope{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	var history []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "bot", history[1].Role)

	// 3. Rate the answer
	body, _ = json.Marshal(map[string]interface{}{"helpful": true, "rating": 5})
	req = httptest.NewRequest("PUT", fmt.Sprintf("/api/chat/v1/feedback/%s", turn.BotMessage.Id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req, 10000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// 4. Feedback on a random id is a 404
	body, _ = json.Marshal(map[string]interface{}{"helpful": false})
	req = httptest.NewRequest("PUT", "/api/chat/v1/feedback/9f1c9f30-0000-0000-0000-000000000000", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req, 10000)
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

// TestPopularQuestionsEndpoint needs no database beyond container startup.
func TestPopularQuestionsEndpoint(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	app := server.New(cfg, container).GetApp()

	req := httptest.NewRequest("GET", "/api/chat/v1/popular-questions?language=hi", nil)
	resp, err := app.Test(req, 10000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var env envelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
}
