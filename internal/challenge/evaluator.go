package challenge

import "strings"

// Rule pairs a challenge keyword with the check applied to the model response.
// Both strings reach the predicate lowercased.
type Rule struct {
	Keyword string
	Passes  func(response string) bool
}

// Rules is evaluated in order; the first keyword found in the challenge decides.
var Rules = []Rule{
	{Keyword: "red", Passes: mentionsWithout("red", "no red", "not red", "isn't red")},
	{Keyword: "landscape", Passes: mentionsWithout("landscape", "not a landscape")},
	{Keyword: "text", Passes: mentionsWithout("text", "no text", "without text")},
	{Keyword: "food", Passes: mentionsWithout("food", "no food", "not food")},
	{Keyword: "multiple objects", Passes: mentionsAny("multiple", "several", "many", "different", "various")},
}

// Evaluate decides whether response satisfies challenge. Challenges no rule
// recognises always fail.
//
// Negations phrased outside the listed patterns are not detected, and an
// "Error: ..." response can pass if it happens to contain the keyword.
func Evaluate(response, challenge string) bool {
	response = strings.ToLower(response)
	challenge = strings.ToLower(challenge)
	for _, rule := range Rules {
		if strings.Contains(challenge, rule.Keyword) {
			return rule.Passes(response)
		}
	}
	return false
}

func mentionsWithout(word string, negations ...string) func(string) bool {
	return func(response string) bool {
		if !strings.Contains(response, word) {
			return false
		}
		for _, negation := range negations {
			if strings.Contains(response, negation) {
				return false
			}
		}
		return true
	}
}

func mentionsAny(words ...string) func(string) bool {
	return func(response string) bool {
		for _, word := range words {
			if strings.Contains(response, word) {
				return true
			}
		}
		return false
	}
}
