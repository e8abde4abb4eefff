package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayush/gyancoder/backend/internal/models"
)

// TranscriptStore defines the transcript persistence the controller consumes.
type TranscriptStore interface {
	Save(username string, turns []models.Turn) error
	List(username string) ([]models.TranscriptEntry, error)
	Load(username, filename string) (*models.Transcript, error)
	Delete(username, filename string) (bool, error)
}

// Session is one user's active conversation. Each operation runs under the
// session mutex: a session is logically sequential even though the HTTP
// server is not.
type Session struct {
	mu           sync.Mutex
	username     string
	turns        []models.Turn
	store        TranscriptStore
	llm          Completer
	systemPrompt string
	log          *zap.Logger
}

// SubmitUserMessage appends a user turn, asks the model for a reply with the
// full role/content history as context, appends the assistant turn, and
// persists the transcript.
//
// An inference failure does not abort the exchange: the assistant turn
// carries "Error: <cause>" as plain text so every user turn keeps a paired
// reply. Only a persistence failure is returned as an error.
func (s *Session) SubmitUserMessage(ctx context.Context, text string) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, models.Turn{Role: models.RoleUser, Content: text})

	messages := make([]Message, 0, len(s.turns)+1)
	messages = append(messages, Message{Role: models.RoleSystem, Content: s.systemPrompt})
	for _, t := range s.turns {
		// Code fragments are display-side only and stay out of model context.
		messages = append(messages, Message{Role: t.Role, Content: t.Content})
	}

	var turn models.Turn
	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.log.Warn("inference failed", zap.String("user", s.username), zap.Error(err))
		turn = models.Turn{Role: models.RoleAssistant, Content: "Error: " + err.Error()}
	} else if display, code, ok := ExtractFence(reply); ok {
		turn = models.Turn{Role: models.RoleAssistant, Content: display, Code: &code}
	} else {
		turn = models.Turn{Role: models.RoleAssistant, Content: reply}
	}
	s.turns = append(s.turns, turn)

	if err := s.store.Save(s.username, s.turns); err != nil {
		return models.Turn{}, err
	}
	return turn, nil
}

// NewChat flushes the current transcript, if any, and starts an empty one.
func (s *Session) NewChat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) > 0 {
		if err := s.store.Save(s.username, s.turns); err != nil {
			return err
		}
	}
	s.turns = nil
	return nil
}

// LoadTranscript replaces the active turns with a stored transcript and
// returns them.
func (s *Session) LoadTranscript(filename string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(s.username, filename)
	if err != nil {
		return nil, err
	}
	s.turns = append([]models.Turn(nil), doc.Messages...)
	return append([]models.Turn(nil), s.turns...), nil
}

// Turns returns a copy of the active turn sequence.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Turn(nil), s.turns...)
}

// Registry hands out the active session for each authenticated user,
// creating it on first use.
type Registry struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	store        TranscriptStore
	llm          Completer
	systemPrompt string
	log          *zap.Logger
}

func NewRegistry(store TranscriptStore, llm Completer, systemPrompt string, log *zap.Logger) *Registry {
	return &Registry{
		sessions:     make(map[string]*Session),
		store:        store,
		llm:          llm,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// ForUser returns the user's session, creating an empty one if needed.
func (r *Registry) ForUser(username string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[username]; ok {
		return s
	}
	s := &Session{
		username:     username,
		store:        r.store,
		llm:          r.llm,
		systemPrompt: r.systemPrompt,
		log:          r.log,
	}
	r.sessions[username] = s
	return s
}
