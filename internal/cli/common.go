package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/tui"
)

// errReported marks a failure whose notification was already printed
var errReported = errors.New("command failed")

// withContext builds a runtime for the working copy at *dir, starts its
// channel and sends ready so the session points at the current branch.
func withContext(cmd *cobra.Command, dir *string, fn func(ctx context.Context, rt *runtime.Context, state *engine.State) error) error {
	start := *dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		start = wd
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tui.ConfigureColor(cmd.OutOrStdout())
	rt, err := runtime.GetContext(ctx, start, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	rt.Start(ctx)

	replies, err := rt.Dispatch(ctx, channel.CommandReady, nil)
	if err != nil {
		return err
	}
	state, err := report(rt.Splog, replies)
	if err != nil {
		return err
	}
	return fn(ctx, rt, state)
}

// report prints notifications and returns the last state update. An error
// notification turns into errReported.
func report(splog *tui.Splog, replies []channel.Message) (*engine.State, error) {
	var (
		state  *engine.State
		failed bool
	)
	for _, msg := range replies {
		switch msg.Command {
		case channel.CommandUpdateState:
			var s engine.State
			if err := msg.Decode(&s); err != nil {
				return nil, err
			}
			state = &s
		case channel.CommandNotify:
			var n channel.Notification
			if err := msg.Decode(&n); err != nil {
				return nil, err
			}
			text := n.Message
			if n.Code != "" {
				text = fmt.Sprintf("%s [%s]", n.Message, n.Code)
			}
			switch n.Level {
			case channel.LevelError:
				failed = true
				splog.Error("%s", text)
			case channel.LevelWarning:
				splog.Warn("%s", text)
			default:
				splog.Info("%s", text)
			}
		}
	}
	if failed {
		return state, errReported
	}
	return state, nil
}

// requireFeature fails unless state belongs to an active feature lifecycle
func requireFeature(state *engine.State) error {
	switch {
	case state == nil:
		return fmt.Errorf("no branch is checked out")
	case !state.IsFeature():
		return fmt.Errorf("%s is not a feature branch; run `kllc new` to start a cycle", state.BranchName)
	case state.Finished():
		return fmt.Errorf("the lifecycle of %s is finished", state.BranchName)
	}
	return nil
}

// IsReported returns true if err was already shown to the user
func IsReported(err error) bool {
	return errors.Is(err, errReported)
}
