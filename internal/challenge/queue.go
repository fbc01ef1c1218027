package challenge

// GameOver is the sentinel shown once every challenge has been handed out.
const GameOver = "Game Over!"

var defaults = []string{
	"Find an image containing something red",
	"Show me a landscape photo",
	"Find an image with text in it",
	"Show me a picture of food",
	"Find an image with multiple objects",
}

// Defaults returns a fresh copy of the built-in challenges in play order.
func Defaults() []string {
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// Queue hands out challenges front to back.
type Queue struct {
	items []string
}

// NewQueue returns a queue holding the default challenges.
func NewQueue() *Queue {
	return &Queue{items: Defaults()}
}

// Pop removes and returns the front challenge. ok is false once the queue is empty.
func (q *Queue) Pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	next := q.items[0]
	q.items = q.items[1:]
	return next, true
}

// Reset restores the default challenges.
func (q *Queue) Reset() {
	q.items = Defaults()
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Remaining returns a copy of the challenges still waiting.
func (q *Queue) Remaining() []string {
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}
