package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/assist/internal/ipc"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/transcript"
	"github.com/rbright/assist/internal/voice"
)

// Handle serves owner-process commands.
func (o *Orchestrator) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return o.status()
	case ipc.CommandListen:
		return o.turnResponse(func() Outcome { return o.Listen(ctx) })
	case ipc.CommandSay:
		text := strings.TrimSpace(strings.Join(req.Args, " "))
		if text == "" {
			return o.errorResponse("say requires text")
		}
		return o.turnResponse(func() Outcome { return o.Say(ctx, text) })
	case ipc.CommandMood:
		return o.handleMood(ctx, req.Args)
	case ipc.CommandVoice:
		return o.handleVoice(ctx, req.Args)
	case ipc.CommandTranscript:
		return ipc.Response{OK: true, State: string(o.View().State), Entries: entryViews(o.log.Entries())}
	case ipc.CommandDialogue:
		dialogue := o.Dialogue()
		entries := make([]ipc.EntryView, 0, len(dialogue))
		for _, msg := range dialogue {
			entries = append(entries, ipc.EntryView{Kind: string(msg.Role), Text: msg.Content})
		}
		return ipc.Response{OK: true, State: string(o.View().State), Entries: entries}
	case ipc.CommandQuit:
		if o.onQuit == nil {
			return o.errorResponse("quit is not supported by this owner")
		}
		o.onQuit()
		return ipc.Response{OK: true, State: string(o.View().State), Message: "stopping"}
	default:
		return o.errorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (o *Orchestrator) status() ipc.Response {
	view := o.View()
	message := fmt.Sprintf("voice=%s mood=%s", view.Selection.Voice.NameAndVoice(), view.Selection.Mood)
	if !view.Configured {
		message += " missing=" + strings.Join(view.Missing, ",")
	}
	return ipc.Response{OK: true, State: string(view.State), Message: message}
}

// turnResponse runs a turn and returns the entries that turn wrote, even
// when other turns write to the log at the same time.
func (o *Orchestrator) turnResponse(run func() Outcome) ipc.Response {
	out := run()

	resp := ipc.Response{
		OK:      !out.Failed,
		State:   string(o.View().State),
		Entries: entryViews(o.log.TurnEntries(out.TurnID)),
		Outcome: &ipc.Outcome{
			TurnID:     out.TurnID,
			Failed:     out.Failed,
			Failure:    string(out.Failure),
			Recognized: out.Recognized,
			Reply:      out.Reply,
		},
	}
	if out.Failed {
		resp.Error = failureText(out)
	} else {
		resp.Message = "turn finished"
	}
	return resp
}

func failureText(out Outcome) string {
	switch {
	case out.Err != nil:
		return out.Err.Error()
	case out.Failure != FailureNone:
		return string(out.Failure)
	default:
		return "turn failed"
	}
}

func (o *Orchestrator) handleMood(ctx context.Context, args []string) ipc.Response {
	if len(args) == 0 {
		return ipc.Response{OK: true, State: string(o.View().State), Message: string(o.Selection().Mood)}
	}
	mood, err := persona.Parse(strings.Join(args, " "))
	if err != nil {
		return o.errorResponse(err.Error())
	}
	if err := o.SelectMood(ctx, mood); err != nil {
		return o.errorResponse(err.Error())
	}
	return ipc.Response{OK: true, State: string(o.View().State), Message: string(mood)}
}

func (o *Orchestrator) handleVoice(ctx context.Context, args []string) ipc.Response {
	if len(args) == 0 {
		return ipc.Response{OK: true, State: string(o.View().State), Message: o.Selection().Voice.NameAndVoice()}
	}
	lv, err := voice.Resolve(strings.Join(args, " "))
	if err != nil {
		return o.errorResponse(err.Error())
	}
	if err := o.SelectVoice(ctx, lv); err != nil {
		return o.errorResponse(err.Error())
	}
	return ipc.Response{OK: true, State: string(o.View().State), Message: lv.NameAndVoice()}
}

func (o *Orchestrator) errorResponse(message string) ipc.Response {
	return ipc.Response{OK: false, State: string(o.View().State), Error: message}
}

func entryViews(entries []transcript.Entry) []ipc.EntryView {
	out := make([]ipc.EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, ipc.EntryView{Kind: string(e.Kind), Text: e.Text})
	}
	return out
}
