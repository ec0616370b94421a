package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionActivity summarizes recent traffic for one chat session.
type SessionActivity struct {
	SessionId     string    `json:"session_id"`
	Turns         int       `json:"turns"`
	LastQuery     string    `json:"last_query"`
	LastLanguage  string    `json:"last_language"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// SessionRepository keeps per-session activity in memory. Entries expire
// after an hour of inactivity.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (r *SessionRepository) Get(sessionId string) (*SessionActivity, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*SessionActivity), true
	}
	return nil, false
}

// RecordTurn bumps the turn counter and refreshes the sliding expiration.
func (r *SessionRepository) RecordTurn(sessionId, query, language string, at time.Time) *SessionActivity {
	activity, found := r.Get(sessionId)
	if !found {
		activity = &SessionActivity{SessionId: sessionId}
	}
	activity.Turns++
	activity.LastQuery = query
	activity.LastLanguage = language
	activity.LastMessageAt = at
	r.cache.Set(sessionId, activity, cache.DefaultExpiration)
	return activity
}

func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
