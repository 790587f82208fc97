// Package cli defines the assist command tree. Command bodies live behind
// Handler so the tree can be exercised without audio or network access.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Globals are the persistent flags shared by every command.
type Globals struct {
	ConfigPath string
}

// CopyOptions select what `assist copy` exports.
type CopyOptions struct {
	// Index is the 1-based transcript entry; zero means the latest reply.
	Index int
	Paste bool
}

// Handler executes parsed commands.
type Handler interface {
	Chat(ctx context.Context, g Globals) error
	Serve(ctx context.Context, g Globals) error
	Listen(ctx context.Context, g Globals) error
	Say(ctx context.Context, g Globals, text string) error
	Status(ctx context.Context, g Globals) error
	Transcript(ctx context.Context, g Globals) error
	Mood(ctx context.Context, g Globals, name string) error
	Voice(ctx context.Context, g Globals, query string) error
	Moods(ctx context.Context, g Globals) error
	Voices(ctx context.Context, g Globals) error
	SettingsList(ctx context.Context, g Globals) error
	SettingsGet(ctx context.Context, g Globals, key string) error
	// SettingsSet receives the words after KEY; none means prompt for the value.
	SettingsSet(ctx context.Context, g Globals, key string, value []string) error
	SettingsUnset(ctx context.Context, g Globals, key string) error
	Copy(ctx context.Context, g Globals, opts CopyOptions) error
	Devices(ctx context.Context, g Globals) error
	Doctor(ctx context.Context, g Globals) error
	Version(ctx context.Context) error
}

// UsageError marks argument or flag mistakes so callers can print help and
// exit with status 2.
type UsageError struct {
	Err error
}

func (e UsageError) Error() string { return e.Err.Error() }
func (e UsageError) Unwrap() error { return e.Err }

// IsUsage reports whether err came from argument parsing.
func IsUsage(err error) bool {
	var usage UsageError
	return errors.As(err, &usage)
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return UsageError{Err: err}
		}
		return nil
	}
}

// NewRootCommand builds the full command tree bound to h.
func NewRootCommand(h Handler) *cobra.Command {
	var g Globals

	root := &cobra.Command{
		Use:           "assist",
		Short:         "Voice assistant: listen, chat, and speak",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return UsageError{Err: fmt.Errorf("unknown command: %s", args[0])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/assist/config.jsonc)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return UsageError{Err: err}
	})
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Interactive session: type to chat, empty line to speak",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Chat(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the owner process that answers listen/say/status requests",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Serve(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "listen",
			Short: "Listen for one utterance, reply, and speak the reply",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Listen(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:     "say TEXT...",
			Short:   "Send typed text as one turn",
			Example: `assist say "what is the capital of France"`,
			Args:    usageArgs(cobra.MinimumNArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.Say(cmd.Context(), g, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print turn state and current selection",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Status(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "transcript",
			Short: "Print the owner process transcript",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Transcript(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "mood [NAME]",
			Short: "Show or select the assistant mood",
			Args:  usageArgs(cobra.MaximumNArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.Mood(cmd.Context(), g, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:     "voice [QUERY]",
			Short:   "Show or select the language and voice",
			Example: "assist voice 4\nassist voice de-DE/de-DE-KatjaNeural",
			Args:    usageArgs(cobra.MaximumNArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.Voice(cmd.Context(), g, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "moods",
			Short: "List available moods",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Moods(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "voices",
			Short: "List available languages and voices",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Voices(cmd.Context(), g)
			},
		},
		newSettingsCommand(h, &g),
		newCopyCommand(h, &g),
		&cobra.Command{
			Use:   "devices",
			Short: "List audio inputs and outputs",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Devices(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "doctor",
			Short: "Run configuration and environment checks",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Doctor(cmd.Context(), g)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.Version(cmd.Context())
			},
		},
	)
	return root
}

func newSettingsCommand(h Handler, g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit stored settings",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every setting and whether it is set",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return h.SettingsList(cmd.Context(), *g)
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.SettingsGet(cmd.Context(), *g, args[0])
			},
		},
		&cobra.Command{
			Use:     "set KEY [VALUE...]",
			Short:   "Store one setting; without VALUE it is read from a hidden prompt",
			Example: "assist settings set custom_system_message_text \"You are a pirate.\"\nassist settings set speech_subscription_key",
			Args:    usageArgs(cobra.MinimumNArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.SettingsSet(cmd.Context(), *g, args[0], args[1:])
			},
		},
		&cobra.Command{
			Use:   "unset KEY",
			Short: "Remove one setting",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return h.SettingsUnset(cmd.Context(), *g, args[0])
			},
		},
	)
	return cmd
}

func newCopyCommand(h Handler, g *Globals) *cobra.Command {
	var paste bool
	cmd := &cobra.Command{
		Use:   "copy [N]",
		Short: "Copy the latest reply (or transcript entry N) to the clipboard",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := CopyOptions{Paste: paste}
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return UsageError{Err: fmt.Errorf("entry index must be a positive integer: %q", args[0])}
				}
				opts.Index = n
			}
			return h.Copy(cmd.Context(), *g, opts)
		},
	}
	cmd.Flags().BoolVar(&paste, "paste", false, "paste into the active window after copying")
	return cmd
}
