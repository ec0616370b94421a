package assembler

import (
	"context"
	"testing"

	"agri-assist-be/internal/constant"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/memory"
)

func seedMessage(t *testing.T, repo *memory.MessageRepository, sessionId, role, text string, farm *entity.FarmContext) {
	t.Helper()
	msg := &entity.ChatMessage{
		SessionId: sessionId,
		Role:      role,
		Text:      text,
		Context:   farm,
	}
	if err := repo.Append(context.Background(), msg); err != nil {
		t.Fatalf("seed append: %v", err)
	}
}

func TestBuildEmptySession(t *testing.T) {
	repo := memory.NewMessageRepository()
	asm := NewAssembler(repo)

	actx, err := asm.Build(context.Background(), "s-empty", Hints{}, nil, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(actx.RecentMessages) != 0 {
		t.Errorf("RecentMessages = %d, want 0", len(actx.RecentMessages))
	}
	if actx.Farm.PriorMessageCount != 0 {
		t.Errorf("PriorMessageCount = %d, want 0", actx.Farm.PriorMessageCount)
	}
	if actx.Language != constant.DefaultLanguage {
		t.Errorf("Language = %q, want default %q", actx.Language, constant.DefaultLanguage)
	}
}

func TestBuildHintPrecedence(t *testing.T) {
	repo := memory.NewMessageRepository()
	asm := NewAssembler(repo)

	storedSize := 4.0
	seedMessage(t, repo, "s1", constant.ChatMessageRoleUser, "first question", &entity.FarmContext{
		Location:      "Pune",
		CropType:      "onion",
		FarmSizeAcres: &storedSize,
	})
	seedMessage(t, repo, "s1", constant.ChatMessageRoleBot, "first answer", nil)

	profileAcres := 10.0
	farmer := &entity.Farmer{Location: "Satara", TotalAcres: &profileAcres}

	actx, err := asm.Build(context.Background(), "s1", Hints{Location: "Nashik", Language: "mr"}, farmer, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Request hint wins over stored context and profile
	if actx.Farm.Location != "Nashik" {
		t.Errorf("Location = %q, want request hint Nashik", actx.Farm.Location)
	}
	// Stored context fills fields the request left empty
	if actx.Farm.CropType != "onion" {
		t.Errorf("CropType = %q, want stored onion", actx.Farm.CropType)
	}
	if actx.Farm.FarmSizeAcres == nil || *actx.Farm.FarmSizeAcres != storedSize {
		t.Errorf("FarmSizeAcres should come from stored context")
	}
	if actx.Language != "mr" {
		t.Errorf("Language = %q, want mr", actx.Language)
	}
	if actx.Farm.PriorMessageCount != 2 {
		t.Errorf("PriorMessageCount = %d, want 2", actx.Farm.PriorMessageCount)
	}
}

func TestBuildProfileFallback(t *testing.T) {
	repo := memory.NewMessageRepository()
	asm := NewAssembler(repo)

	profileAcres := 10.0
	farmer := &entity.Farmer{Location: "Satara", TotalAcres: &profileAcres}

	actx, err := asm.Build(context.Background(), "s-new", Hints{}, farmer, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if actx.Farm.Location != "Satara" {
		t.Errorf("Location = %q, want profile Satara", actx.Farm.Location)
	}
	if actx.Farm.FarmSizeAcres == nil || *actx.Farm.FarmSizeAcres != profileAcres {
		t.Errorf("FarmSizeAcres should come from profile")
	}
}

func TestBuildWindowBound(t *testing.T) {
	repo := memory.NewMessageRepository()
	asm := NewAssembler(repo)

	for i := 0; i < 8; i++ {
		seedMessage(t, repo, "s-long", constant.ChatMessageRoleUser, "q", nil)
	}

	actx, err := asm.Build(context.Background(), "s-long", Hints{}, nil, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(actx.RecentMessages) != constant.RecentWindowSize {
		t.Errorf("window = %d, want %d", len(actx.RecentMessages), constant.RecentWindowSize)
	}
}
