package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePopsDefaultsInOrder(t *testing.T) {
	q := NewQueue()
	require.Equal(t, 5, q.Len())

	var got []string
	for {
		next, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, next)
	}
	assert.Equal(t, Defaults(), got)

	_, ok := q.Pop()
	assert.False(t, ok, "empty queue stays empty")

	q.Reset()
	assert.Equal(t, Defaults(), q.Remaining())
}

func TestDefaultsReturnsCopy(t *testing.T) {
	first := Defaults()
	first[0] = "mutated"
	assert.Equal(t, "Find an image containing something red", Defaults()[0])
}

func TestEvaluate(t *testing.T) {
	const (
		red       = "Find an image containing something red"
		landscape = "Show me a landscape photo"
		text      = "Find an image with text in it"
		food      = "Show me a picture of food"
		multiple  = "Find an image with multiple objects"
	)

	cases := []struct {
		name      string
		response  string
		challenge string
		want      bool
	}{
		{"red apple", "I see a red apple on a table", red, true},
		{"no red", "There is no red here, just blue", red, false},
		{"not red", "The car is not red.", red, false},
		{"isn't red", "The ball isn't red at all", red, false},
		{"red case insensitive", "A bright RED bus", "FIND SOMETHING RED", true},
		{"landscape", "A wide mountain landscape at dusk", landscape, true},
		{"not a landscape", "This is not a landscape, it is a portrait", landscape, false},
		{"text", "The sign has text reading STOP", text, true},
		{"no text", "There is no text visible", text, false},
		{"without text", "A plain wall without text", text, false},
		{"food", "A plate of food with rice", food, true},
		{"no food", "An empty table with no food", food, false},
		{"not food", "This is a toy, not food", food, false},
		{"several items", "This shows several different items", multiple, true},
		{"single apple", "A single green apple", multiple, false},
		{"unknown challenge", "red landscape text food", "Show me a cat", false},
		{"error text can pass", "Error: connection refused while reading text", text, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.response, tc.challenge))
		})
	}
}

func TestEvaluateFirstRuleWins(t *testing.T) {
	// "red" is matched before "text", so the text rule is never consulted.
	assert.False(t, Evaluate("lots of text", "Find red text"))
	assert.True(t, Evaluate("a red sign", "Find red text"))
}
