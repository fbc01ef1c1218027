package game

import (
	"time"

	"github.com/goosewin/visionquest/internal/challenge"
)

// Session is one play-through. It is not safe for concurrent use; the Store
// serializes access per session.
type Session struct {
	ID        string
	Score     int
	Current   string
	Queue     *challenge.Queue
	StartedAt time.Time
	Last      *Outcome
}

// Outcome is the result of one image submission.
type Outcome struct {
	Challenge string
	Response  string
	Passed    bool
	Failed    bool
	Awarded   int
	Score     int
	Image     string
}

func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Queue:     challenge.NewQueue(),
		StartedAt: time.Now(),
	}
}

// NewChallenge moves the front of the queue into Current, or sets the
// game-over sentinel once the queue is empty.
func (s *Session) NewChallenge() string {
	if next, ok := s.Queue.Pop(); ok {
		s.Current = next
	} else {
		s.Current = challenge.GameOver
	}
	return s.Current
}

// Reset discards all progress.
func (s *Session) Reset() {
	s.Score = 0
	s.Current = ""
	s.Queue.Reset()
	s.Last = nil
	s.StartedAt = time.Now()
}

// Active reports whether an image can be submitted right now.
func (s *Session) Active() bool {
	return s.Current != "" && s.Current != challenge.GameOver
}

func (s *Session) Over() bool {
	return s.Current == challenge.GameOver
}

// Served is the number of challenges handed out so far.
func (s *Session) Served() int {
	return len(challenge.Defaults()) - s.Queue.Len()
}

// Total is the number of challenges in a full game.
func (s *Session) Total() int {
	return len(challenge.Defaults())
}
