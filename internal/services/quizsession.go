package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"linecue-backend/internal/models"
)

type answerScorer interface {
	Evaluate(ctx context.Context, expectedText, userText, strictness string) models.EvaluationResult
}

type resultRecorder interface {
	RecordResult(ctx context.Context, cueCardID uuid.UUID, score float64, now time.Time) (models.ReviewStat, error)
}

// QuizSession sequences one pass through a document's cue cards. All
// transitions happen under the session lock; at most one evaluation is in
// flight per session.
type QuizSession struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DocumentID uuid.UUID

	mu        sync.Mutex
	cues      []models.CueCard
	index     int
	feedback  *models.EvaluationResult
	hintShown bool
	finished  bool
	pending   bool
}

// QuizSessionView is the handler-facing snapshot of a session. The expected
// text is only revealed after a hint request or a submitted answer.
type QuizSessionView struct {
	SessionID    uuid.UUID                `json:"session_id"`
	DocumentID   uuid.UUID                `json:"document_id"`
	Index        int                      `json:"index"`
	Total        int                      `json:"total"`
	Progress     float64                  `json:"progress"`
	Finished     bool                     `json:"finished"`
	CueWord      string                   `json:"cue_word,omitempty"`
	Keywords     []string                 `json:"keywords,omitempty"`
	ExpectedText string                   `json:"expected_text,omitempty"`
	Feedback     *models.EvaluationResult `json:"feedback,omitempty"`
}

// QuizService owns the live sessions. Sessions are process-local and
// discarded on cancel or shutdown; recorded review stats always survive.
type QuizService struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*QuizSession
	evaluator answerScorer
	progress  resultRecorder
}

func NewQuizService(evaluator answerScorer, progress resultRecorder) *QuizService {
	return &QuizService{
		sessions:  make(map[uuid.UUID]*QuizSession),
		evaluator: evaluator,
		progress:  progress,
	}
}

// Start opens a session over a non-empty ordered cue sequence.
func (s *QuizService) Start(userID, documentID uuid.UUID, cues []models.CueCard) (QuizSessionView, error) {
	if len(cues) == 0 {
		return QuizSessionView{}, &ValidationError{Fields: map[string]string{
			"cues": "Document has no cue cards to rehearse",
		}}
	}

	session := &QuizSession{
		ID:         uuid.New(),
		UserID:     userID,
		DocumentID: documentID,
		cues:       cues,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.view(), nil
}

func (s *QuizService) Get(sessionID, userID uuid.UUID) (QuizSessionView, error) {
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return QuizSessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.viewLocked(), nil
}

// Submit evaluates the user's recollection of the current card and records
// the result. Re-submitting while feedback is pending or already present is
// a no-op returning the current state.
func (s *QuizService) Submit(ctx context.Context, sessionID, userID uuid.UUID, answer string) (QuizSessionView, error) {
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return QuizSessionView{}, err
	}

	session.mu.Lock()
	if session.finished || session.feedback != nil || session.pending {
		view := session.viewLocked()
		session.mu.Unlock()
		return view, nil
	}

	if strings.TrimSpace(answer) == "" {
		session.mu.Unlock()
		return QuizSessionView{}, &ValidationError{Fields: map[string]string{
			"answer": "Answer must not be empty",
		}}
	}

	cue := session.cues[session.index]
	session.pending = true
	session.mu.Unlock()

	// Evaluation runs outside the lock; the pending flag blocks a second
	// submission for the same cue until this one resolves.
	result := s.evaluator.Evaluate(ctx, cue.ExpectedText, answer, cue.Strictness)

	if _, err := s.progress.RecordResult(ctx, cue.ID, result.Score, time.Now()); err != nil {
		session.mu.Lock()
		session.pending = false
		session.mu.Unlock()
		return QuizSessionView{}, err
	}

	session.mu.Lock()
	session.pending = false
	session.feedback = &result
	view := session.viewLocked()
	session.mu.Unlock()

	return view, nil
}

// Advance moves past the current card once feedback is present, clearing
// feedback and hint state. On the last card it finishes the session.
// Advancing without feedback, or after finishing, is a no-op.
func (s *QuizService) Advance(sessionID, userID uuid.UUID) (QuizSessionView, error) {
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return QuizSessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.finished || session.feedback == nil {
		return session.viewLocked(), nil
	}

	session.feedback = nil
	session.hintShown = false
	if session.index < len(session.cues)-1 {
		session.index++
	} else {
		session.finished = true
	}

	return session.viewLocked(), nil
}

// RevealHint exposes the expected text for the current card.
func (s *QuizService) RevealHint(sessionID, userID uuid.UUID) (QuizSessionView, error) {
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return QuizSessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.finished {
		session.hintShown = true
	}
	return session.viewLocked(), nil
}

// Cancel discards the session. Review stats recorded so far are kept.
func (s *QuizService) Cancel(sessionID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok && session.UserID == userID {
		delete(s.sessions, sessionID)
	}
}

// CancelByDocument drops any live session for a document, used when the
// document itself is deleted.
func (s *QuizService) CancelByDocument(documentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.DocumentID == documentID {
			delete(s.sessions, id)
		}
	}
}

func (s *QuizService) lookup(sessionID, userID uuid.UUID) (*QuizSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || session.UserID != userID {
		return nil, &NotFoundError{Message: "Quiz session not found"}
	}
	return session, nil
}

func (q *QuizSession) view() QuizSessionView {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.viewLocked()
}

func (q *QuizSession) viewLocked() QuizSessionView {
	view := QuizSessionView{
		SessionID:  q.ID,
		DocumentID: q.DocumentID,
		Index:      q.index,
		Total:      len(q.cues),
		Progress:   float64(q.index) / float64(len(q.cues)),
		Finished:   q.finished,
		Feedback:   q.feedback,
	}
	if q.finished {
		view.Progress = 1
	}

	if !q.finished {
		cue := q.cues[q.index]
		view.CueWord = cue.CueWord
		view.Keywords = cue.Keywords
		if q.hintShown || q.feedback != nil {
			view.ExpectedText = cue.ExpectedText
		}
	}
	return view
}
