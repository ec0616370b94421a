package constant

const (
	ChatMessageRoleUser   = "user"
	ChatMessageRoleBot    = "bot"
	ChatMessageRoleSystem = "system"
)

// FallbackResponse is returned whenever the remote generator fails.
// Callers see a complete answer with metadata confidence 0.
const FallbackResponse = "I'm sorry, I couldn't process your question right now. " +
	"Please try again in a moment, or rephrase your question."

// Persona preambles for the generator prompt. The voice variant asks for
// short spoken sentences since the reply is read aloud.
const (
	AdvisorPersonaText = `You are AgriAssist, an experienced agricultural advisor. ` +
		`Give practical, region-aware advice on crops, soil, irrigation, pests and markets. ` +
		`Answer in the farmer's language and keep advice actionable.`

	AdvisorPersonaVoice = `You are AgriAssist, an experienced agricultural advisor speaking to a farmer over voice. ` +
		`Give practical advice in short spoken sentences. ` +
		`Do not use lists, markdown or headings; speak plainly.`
)

// DefaultLanguage is assumed when a request carries no language code.
const DefaultLanguage = "en"

const (
	// RecentWindowSize bounds how many stored messages feed context assembly.
	RecentWindowSize = 5
	// PromptTurnWindow bounds how many prior turns are rendered into the prompt.
	PromptTurnWindow = 3
	// DefaultHistoryLimit is the history page size when the caller gives none.
	DefaultHistoryLimit = 50
)
