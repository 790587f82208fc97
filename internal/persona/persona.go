// Package persona maps moods to system prompts and synthesis styles.
package persona

import (
	"fmt"
	"strings"
)

// Mood selects the assistant persona for a turn.
type Mood string

const (
	Neutral       Mood = "Neutral"
	Praising      Mood = "Praising"
	Silly         Mood = "Silly"
	Bender        Mood = "Bender"
	AdventureGame Mood = "Adventure Game"
	Emergency     Mood = "Emergency"
	Custom        Mood = "Custom"
)

// Style is the expressive synthesis style tag.
type Style string

const (
	StyleDefault    Style = "Default"
	StyleHopeful    Style = "Hopeful"
	StyleExcited    Style = "Excited"
	StyleUnfriendly Style = "Unfriendly"
)

const (
	neutralPrompt   = "You are a helpful assistant."
	praisingPrompt  = "You are a helpful and admiring assistant. Answer all questions very reverently, as if the person asking were a renowned academic celebrity."
	sillyPrompt     = "You are a helpful assistant who gives answers in a funny way. You are a bit crazy and sometimes overdo it with the answers."
	benderPrompt    = "You act like Bender from Futurama, using the tone, manner and vocabulary Bender would use. Do not write any explanations. Only answer like Bender. You must know all of the knowledge of Bender."
	adventurePrompt = "You act as a text based adventure game. You explain to me what is happening around me. I will tell you what I want to do and you describe the consequences of my actions."
	emergencyPrompt = "You act as a first aid professional that reacts to an emergency situation. I will describe the emergency and will provide advice on how to handle it. You should only reply with your advice, and nothing else. Do not write explanations."
)

// All returns every mood in display order.
func All() []Mood {
	return []Mood{Neutral, Praising, Silly, Bender, AdventureGame, Emergency, Custom}
}

// Parse resolves a mood name case-insensitively. Underscores and dashes
// stand in for spaces so "adventure-game" works on a command line.
func Parse(raw string) (Mood, error) {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(raw))
	for _, m := range All() {
		if strings.EqualFold(string(m), normalized) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", raw)
}

// SystemPrompt resolves the system message for mood. Custom returns the
// caller-supplied live text; unknown moods fall back to Neutral.
func SystemPrompt(mood Mood, custom string) string {
	switch mood {
	case Praising:
		return praisingPrompt
	case Silly:
		return sillyPrompt
	case Bender:
		return benderPrompt
	case AdventureGame:
		return adventurePrompt
	case Emergency:
		return emergencyPrompt
	case Custom:
		return custom
	default:
		return neutralPrompt
	}
}

// StyleFor maps mood to a synthesis style. The mapping is total.
func StyleFor(mood Mood) Style {
	switch mood {
	case Praising:
		return StyleHopeful
	case Silly:
		return StyleExcited
	case Bender:
		return StyleUnfriendly
	default:
		return StyleDefault
	}
}

// ReplyInstruction appends the reply-language instruction to a user prompt.
func ReplyInstruction(prompt, locale string) string {
	return prompt + " Write your reply in " + locale + " language."
}
