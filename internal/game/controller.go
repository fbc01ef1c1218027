package game

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/goosewin/visionquest/internal/challenge"
	"github.com/goosewin/visionquest/internal/imaging"
	"github.com/goosewin/visionquest/internal/vision"
)

const (
	DefaultPoints        = 10
	DefaultNotifyTimeout = 10 * time.Second
)

var ErrNoActiveChallenge = errors.New("no active challenge: request a new challenge first")

// Querier asks the vision model about an encoded image.
type Querier interface {
	Query(ctx context.Context, encodedImage, challenge string) vision.Result
}

// Summary describes a finished game.
type Summary struct {
	SessionID  string
	Score      int
	Challenges int
	Duration   time.Duration
}

// NotifyFunc is called once when a session runs out of challenges. It runs in
// the background; errors are only logged.
type NotifyFunc func(ctx context.Context, summary Summary) error

// Controller drives sessions: handing out challenges, scoring submissions.
type Controller struct {
	vision        Querier
	notify        NotifyFunc
	notifyTimeout time.Duration
	points        int
	logger        *slog.Logger
	now           func() time.Time
	pending       sync.WaitGroup
}

type Option func(*Controller)

// WithPoints sets the award for a passing submission. Only positive multiples
// of DefaultPoints are accepted so scores stay multiples of ten.
func WithPoints(points int) Option {
	return func(c *Controller) {
		if points > 0 && points%DefaultPoints == 0 {
			c.points = points
		}
	}
}

func WithNotify(fn NotifyFunc) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

func WithNotifyTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.notifyTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewController(v Querier, opts ...Option) *Controller {
	c := &Controller{
		vision:        v,
		notifyTimeout: DefaultNotifyTimeout,
		points:        DefaultPoints,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Points() int {
	return c.points
}

// Next hands out the next challenge. Reaching the end of the queue fires the
// game-over notification exactly once per play-through, without waiting for it.
func (c *Controller) Next(ctx context.Context, s *Session) string {
	wasOver := s.Over()
	current := s.NewChallenge()
	s.Last = nil
	c.logger.Info("new challenge", "session", s.ID, "challenge", current, "remaining", s.Queue.Len())

	if !wasOver && s.Over() && c.notify != nil {
		summary := Summary{
			SessionID:  s.ID,
			Score:      s.Score,
			Challenges: s.Total(),
			Duration:   c.now().Sub(s.StartedAt),
		}
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
			defer cancel()
			if err := c.notify(notifyCtx, summary); err != nil {
				c.logger.Warn("game over notification failed", "session", summary.SessionID, "error", err)
			}
		}()
	}
	return current
}

// Wait blocks until in-flight game-over notifications have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) Reset(s *Session) {
	s.Reset()
	c.logger.Info("session reset", "session", s.ID)
}

// Submit scores img against the session's current challenge. The session
// keeps its challenge afterwards so the player may try again.
func (c *Controller) Submit(ctx context.Context, s *Session, img image.Image) (Outcome, error) {
	if !s.Active() {
		return Outcome{}, ErrNoActiveChallenge
	}

	encoded, err := imaging.Encode(img)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode image: %w", err)
	}

	started := c.now()
	result := c.vision.Query(ctx, encoded, s.Current)
	response := result.Display()

	outcome := Outcome{
		Challenge: s.Current,
		Response:  response,
		Failed:    !result.OK(),
		Image:     encoded,
	}
	if !result.OK() {
		c.logger.Warn("vision query failed", "session", s.ID, "error", result.Err)
	}

	// The rendered text is scored even on failure; an error message that
	// happens to contain the keyword still counts.
	if challenge.Evaluate(response, s.Current) {
		outcome.Passed = true
		outcome.Awarded = c.points
		s.Score += c.points
	}
	outcome.Score = s.Score
	s.Last = &outcome

	c.logger.Info("image evaluated",
		"session", s.ID,
		"challenge", s.Current,
		"passed", outcome.Passed,
		"score", s.Score,
		"elapsed", c.now().Sub(started),
	)
	return outcome, nil
}
