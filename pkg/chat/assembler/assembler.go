package assembler

import (
	"context"

	"agri-assist-be/internal/constant"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/contract"
)

// Hints are caller-declared context values for one turn.
type Hints struct {
	Language      string
	Location      string
	CropType      string
	Season        string
	FarmSizeAcres *float64
}

// AssembledContext is everything the generator needs for one turn.
type AssembledContext struct {
	SessionId      string
	Language       string
	IsVoice        bool
	Farm           entity.FarmContext
	RecentMessages []*entity.ChatMessage
}

// Assembler builds per-turn generation context. Pure read+merge, no writes.
type Assembler struct {
	messageRepo contract.MessageRepository
}

func NewAssembler(messageRepo contract.MessageRepository) *Assembler {
	return &Assembler{messageRepo: messageRepo}
}

// Build merges caller hints with the farmer profile and the stored context of
// the most recent prior message. Caller hints always win. Missing optional
// hints stay empty rather than being defaulted.
func (a *Assembler) Build(ctx context.Context, sessionId string, hints Hints, farmer *entity.Farmer, isVoice bool) (*AssembledContext, error) {
	recent, err := a.messageRepo.Recent(ctx, sessionId, constant.RecentWindowSize)
	if err != nil {
		return nil, err
	}

	farm := entity.FarmContext{
		Location:          hints.Location,
		CropType:          hints.CropType,
		Season:            hints.Season,
		FarmSizeAcres:     hints.FarmSizeAcres,
		PriorMessageCount: len(recent),
	}

	if stored := latestStoredContext(recent); stored != nil {
		if farm.Location == "" {
			farm.Location = stored.Location
		}
		if farm.CropType == "" {
			farm.CropType = stored.CropType
		}
		if farm.Season == "" {
			farm.Season = stored.Season
		}
		if farm.FarmSizeAcres == nil {
			farm.FarmSizeAcres = stored.FarmSizeAcres
		}
	}

	// Profile hints rank below both request hints and stored session context
	if farmer != nil {
		if farm.Location == "" {
			farm.Location = farmer.Location
		}
		if farm.FarmSizeAcres == nil {
			farm.FarmSizeAcres = farmer.TotalAcres
		}
	}

	language := hints.Language
	if language == "" {
		language = constant.DefaultLanguage
	}

	return &AssembledContext{
		SessionId:      sessionId,
		Language:       language,
		IsVoice:        isVoice,
		Farm:           farm,
		RecentMessages: recent,
	}, nil
}

func latestStoredContext(recent []*entity.ChatMessage) *entity.FarmContext {
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Context != nil {
			return recent[i].Context
		}
	}
	return nil
}
