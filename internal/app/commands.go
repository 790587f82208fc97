package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/chzyer/readline"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/cli"
	"github.com/rbright/assist/internal/doctor"
	"github.com/rbright/assist/internal/ipc"
	"github.com/rbright/assist/internal/output"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/pipeline"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/transcript"
	"github.com/rbright/assist/internal/voice"
)

func (r Runner) Moods(context.Context, cli.Globals) error {
	printMoods(r.Stdout)
	return nil
}

func (r Runner) Voices(context.Context, cli.Globals) error {
	printVoices(r.Stdout)
	return nil
}

func printMoods(w io.Writer) {
	for i, mood := range persona.All() {
		fmt.Fprintf(w, "%d. %s\n", i+1, mood)
	}
}

func printVoices(w io.Writer) {
	for i, lv := range voice.Catalog() {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, lv.NameAndLocale(), lv.Voice)
	}
}

// openStore loads config and opens the settings backend for one command.
func (r Runner) openStore(ctx context.Context, g cli.Globals, command string) (*environment, *settings.Store, func(), error) {
	env, err := r.setup(g, command)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closer, err := pipeline.OpenSettings(ctx, env.cfg().Settings)
	if err != nil {
		_ = env.close()
		return nil, nil, nil, err
	}
	release := func() {
		_ = closer.Close()
		_ = env.close()
	}
	return env, store, release, nil
}

// SettingsList shows every field with its tier. Secure values are never
// printed here, only whether they are set.
func (r Runner) SettingsList(ctx context.Context, g cli.Globals) error {
	_, store, release, err := r.openStore(ctx, g, "settings list")
	if err != nil {
		return err
	}
	defer release()

	for _, f := range settings.Fields() {
		raw, ok, err := store.Raw(ctx, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Key(), err)
		}
		tier := "plain"
		shown := raw
		if f.Secure() {
			tier = "secure"
			shown = "set"
		}
		if !ok {
			shown = "(unset)"
		}
		fmt.Fprintf(r.Stdout, "%-28s %-6s %s\n", f.Key(), tier, shown)
	}
	return nil
}

func (r Runner) SettingsGet(ctx context.Context, g cli.Globals, key string) error {
	field, err := settings.Lookup(key)
	if err != nil {
		return err
	}
	_, store, release, err := r.openStore(ctx, g, "settings get")
	if err != nil {
		return err
	}
	defer release()

	raw, ok, err := store.Raw(ctx, field)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not set", key)
	}
	fmt.Fprintln(r.Stdout, raw)
	return nil
}

func (r Runner) SettingsSet(ctx context.Context, g cli.Globals, key string, value []string) error {
	field, err := settings.Lookup(key)
	if err != nil {
		return err
	}
	env, store, release, err := r.openStore(ctx, g, "settings set")
	if err != nil {
		return err
	}
	defer release()

	raw := strings.Join(value, " ")
	if len(value) == 0 {
		if raw, err = r.promptValue(field); err != nil {
			return err
		}
	}
	if err := store.SetRaw(ctx, field, raw); err != nil {
		return err
	}

	env.logger.Info("setting saved", "key", field.Key(), "secure", field.Secure())
	fmt.Fprintf(r.Stdout, "saved %s\n", field.Key())
	if field.Secure() {
		fmt.Fprintln(r.Stdout, "restart a running owner to apply")
	}
	return nil
}

func (r Runner) SettingsUnset(ctx context.Context, g cli.Globals, key string) error {
	field, err := settings.Lookup(key)
	if err != nil {
		return err
	}
	env, store, release, err := r.openStore(ctx, g, "settings unset")
	if err != nil {
		return err
	}
	defer release()

	if err := store.Clear(ctx, field); err != nil {
		return err
	}
	env.logger.Info("setting cleared", "key", field.Key())
	fmt.Fprintf(r.Stdout, "cleared %s\n", field.Key())
	return nil
}

// promptValue reads one value. Secure fields on a terminal get a masked
// prompt; anything else reads a plain line from stdin.
func (r Runner) promptValue(f settings.Field) (string, error) {
	if tty, ok := terminal(r.Stdin); ok && f.Secure() {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:     f.Key() + ": ",
			EnableMask: true,
			MaskRune:   '*',
			Stdin:      tty,
			Stdout:     r.Stdout,
			Stderr:     r.Stderr,
		})
		if err != nil {
			return "", err
		}
		defer rl.Close()
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	if r.Stdin == nil {
		return "", errors.New("no value given and stdin is unavailable")
	}
	line, err := bufio.NewReader(r.Stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", f.Key(), err)
	}
	return strings.TrimSpace(line), nil
}

func terminal(in io.Reader) (*os.File, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return nil, false
	}
	info, err := f.Stat()
	if err != nil {
		return nil, false
	}
	return f, info.Mode()&os.ModeCharDevice != 0
}

// Copy exports a transcript entry from the running owner.
func (r Runner) Copy(ctx context.Context, g cli.Globals, opts cli.CopyOptions) error {
	env, err := r.setup(g, "copy")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	resp, err := forwardOrFail(ctx, ipc.Request{Command: ipc.CommandTranscript}, probeTimeout)
	if err != nil {
		return err
	}
	entries := make([]transcript.Entry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, transcript.Entry{Kind: transcript.Kind(e.Kind), Text: e.Text})
	}

	entry, err := output.SelectEntry(entries, opts.Index)
	if err != nil {
		return err
	}
	if err := output.NewExporter(env.cfg().Output, env.logger).Copy(ctx, entry.Text, opts.Paste); err != nil {
		return err
	}
	chars := utf8.RuneCountInString(entry.Text)
	env.logger.Info("entry copied", "kind", string(entry.Kind), "chars", chars, "paste", opts.Paste)
	fmt.Fprintf(r.Stdout, "copied %s entry (%d chars)\n", entry.Kind, chars)
	return nil
}

func (r Runner) Devices(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "devices")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	devices, err := audio.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return exitError{code: 1}
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s %-6s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.Direction,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}
	return nil
}

func (r Runner) Doctor(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "doctor")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	store, closer, storeErr := pipeline.OpenSettings(ctx, env.cfg().Settings)
	if storeErr == nil {
		defer func() { _ = closer.Close() }()
	}

	report := doctor.Run(ctx, doctor.Inputs{Loaded: env.loaded, Store: store, StoreErr: storeErr})
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return exitError{code: 1}
	}
	return nil
}
