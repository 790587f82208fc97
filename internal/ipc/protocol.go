// Package ipc carries owner-process commands over a unix socket as
// newline-delimited JSON.
package ipc

// Commands understood by the owner process.
const (
	CommandStatus     = "status"
	CommandListen     = "listen"
	CommandSay        = "say"
	CommandMood       = "mood"
	CommandVoice      = "voice"
	CommandTranscript = "transcript"
	CommandDialogue   = "dialogue"
	CommandQuit       = "quit"
)

type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	OK      bool        `json:"ok"`
	State   string      `json:"state,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Entries []EntryView `json:"entries,omitempty"`
	Outcome *Outcome    `json:"outcome,omitempty"`
}

// EntryView is one transcript or dialogue line as shown to clients.
type EntryView struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Outcome summarizes a finished turn.
type Outcome struct {
	TurnID     string `json:"turn_id"`
	Failed     bool   `json:"failed"`
	Failure    string `json:"failure,omitempty"`
	Recognized string `json:"recognized,omitempty"`
	Reply      string `json:"reply,omitempty"`
}
