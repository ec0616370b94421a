package prompt

import (
	"fmt"
	"strings"

	"agri-assist-be/internal/constant"
	"agri-assist-be/pkg/chat/assembler"
)

// Builder renders the deterministic generation prompt for one turn.
type Builder struct {
	userText string
	actx     *assembler.AssembledContext
}

func NewBuilder(userText string, actx *assembler.AssembledContext) *Builder {
	return &Builder{
		userText: userText,
		actx:     actx,
	}
}

// Build assembles persona, labeled context lines, the recent-turn window and
// the new user text into one prompt string.
func (b *Builder) Build() string {
	var prompt strings.Builder

	b.writePersona(&prompt)
	b.writeFarmContext(&prompt)
	b.writeHistory(&prompt)
	b.writeUserText(&prompt)

	return prompt.String()
}

func (b *Builder) writePersona(prompt *strings.Builder) {
	if b.actx.IsVoice {
		prompt.WriteString(constant.AdvisorPersonaVoice)
	} else {
		prompt.WriteString(constant.AdvisorPersonaText)
	}
	prompt.WriteString("\n\n")
}

func (b *Builder) writeFarmContext(prompt *strings.Builder) {
	farm := b.actx.Farm

	var lines []string
	if b.actx.Language != "" {
		lines = append(lines, "Language: "+b.actx.Language)
	}
	if farm.Location != "" {
		lines = append(lines, "Farm location: "+farm.Location)
	}
	if farm.CropType != "" {
		lines = append(lines, "Crop: "+farm.CropType)
	}
	if farm.Season != "" {
		lines = append(lines, "Season: "+farm.Season)
	}
	if farm.FarmSizeAcres != nil {
		lines = append(lines, fmt.Sprintf("Farm size: %.2f acres", *farm.FarmSizeAcres))
	}

	if len(lines) == 0 {
		return
	}

	prompt.WriteString("Farmer context:\n")
	for _, line := range lines {
		prompt.WriteString(line)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
}

func (b *Builder) writeHistory(prompt *strings.Builder) {
	recent := b.actx.RecentMessages

	// A turn is a user/bot pair, so the window is twice the turn count
	max := constant.PromptTurnWindow * 2
	if len(recent) > max {
		recent = recent[len(recent)-max:]
	}
	if len(recent) == 0 {
		return
	}

	prompt.WriteString("Conversation so far:\n")
	for _, msg := range recent {
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Text)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
}

func (b *Builder) writeUserText(prompt *strings.Builder) {
	prompt.WriteString("Farmer's question: ")
	prompt.WriteString(b.userText)
}
