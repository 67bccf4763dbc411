package channel_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
	"kllc.dev/kllc/internal/store"
)

type fakeVCS struct {
	mu      sync.Mutex
	branch  string
	dirty   bool
	commits []string
	tags    []string
	tagErr  error
}

func (f *fakeVCS) CurrentBranch(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch, nil
}

func (f *fakeVCS) IsClean(context.Context) (bool, error) { return !f.dirty, nil }

func (f *fakeVCS) CreateBranch(_ context.Context, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branch = name
	return nil
}

func (f *fakeVCS) Commit(_ context.Context, message string) error {
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeVCS) Tag(_ context.Context, name string) error {
	if f.tagErr != nil {
		return f.tagErr
	}
	f.tags = append(f.tags, name)
	return nil
}

type harness struct {
	vcs     *fakeVCS
	store   *store.MemoryStore
	channel *channel.Channel
}

func newHarness(t *testing.T, branch string, opts ...channel.Option) *harness {
	t.Helper()
	vcs := &fakeVCS{branch: branch}
	st := store.NewMemoryStore()
	eng := engine.New(vcs, st, engine.WithClock(func() time.Time {
		return time.Date(2024, time.March, 5, 9, 7, 0, 0, time.Local)
	}))
	ch := channel.New(eng, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ch.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &harness{vcs: vcs, store: st, channel: ch}
}

func (h *harness) submit(t *testing.T, command channel.Command, payload any) []channel.Message {
	t.Helper()
	msg, err := channel.NewMessage(command, payload)
	require.NoError(t, err)
	replies, err := h.channel.Submit(context.Background(), msg)
	require.NoError(t, err)
	return replies
}

func decodeState(t *testing.T, msg channel.Message) *engine.State {
	t.Helper()
	require.Equal(t, channel.CommandUpdateState, msg.Command)
	var state engine.State
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	return &state
}

func decodeNotification(t *testing.T, msg channel.Message) channel.Notification {
	t.Helper()
	require.Equal(t, channel.CommandNotify, msg.Command)
	var n channel.Notification
	require.NoError(t, json.Unmarshal(msg.Payload, &n))
	return n
}

func TestReady(t *testing.T) {
	t.Run("emits state for current branch", func(t *testing.T) {
		h := newHarness(t, "feature/42-login")

		replies := h.submit(t, channel.CommandReady, nil)
		require.Len(t, replies, 1)
		state := decodeState(t, replies[0])
		require.Equal(t, "feature/42-login", state.BranchName)
		require.Equal(t, engine.BranchFeature, state.BranchType)
		require.Equal(t, "feature/42-login", h.channel.Session().Branch)
	})

	t.Run("non-feature branch still gets state", func(t *testing.T) {
		h := newHarness(t, "main")
		state := decodeState(t, h.submit(t, channel.CommandReady, nil)[0])
		require.Equal(t, engine.BranchNonFeature, state.BranchType)
	})

	t.Run("detached head warns", func(t *testing.T) {
		h := newHarness(t, "")
		replies := h.submit(t, channel.CommandReady, nil)
		require.Len(t, replies, 1)
		require.Equal(t, channel.LevelWarning, decodeNotification(t, replies[0]).Level)
	})
}

func TestCreateBranch(t *testing.T) {
	t.Run("creates cycle and switches session", func(t *testing.T) {
		h := newHarness(t, "master")
		h.submit(t, channel.CommandReady, nil)

		replies := h.submit(t, channel.CommandCreateBranch, engine.CycleRequest{
			PrdLink:  "https://x.io/specs/login",
			MeegleID: "42",
		})
		require.Len(t, replies, 2)
		require.Equal(t, channel.LevelInfo, decodeNotification(t, replies[0]).Level)
		state := decodeState(t, replies[1])
		require.Equal(t, "feature/42-login", state.BranchName)
		require.Equal(t, "feature/42-login", h.channel.Session().Branch)
	})

	t.Run("dirty working copy reports E001", func(t *testing.T) {
		h := newHarness(t, "master")
		h.vcs.dirty = true

		replies := h.submit(t, channel.CommandCreateBranch, engine.CycleRequest{
			PrdLink:  "https://x.io/specs/login",
			MeegleID: "42",
		})
		require.Len(t, replies, 1)
		n := decodeNotification(t, replies[0])
		require.Equal(t, channel.LevelError, n.Level)
		require.Equal(t, kllcerrors.CodeDirtyWorkingCopy, n.Code)

		branches, err := h.store.List(context.Background())
		require.NoError(t, err)
		require.Empty(t, branches)
	})

	t.Run("unparseable link warns with E002", func(t *testing.T) {
		h := newHarness(t, "master")
		replies := h.submit(t, channel.CommandCreateBranch, engine.CycleRequest{PrdLink: "https://x.io/prd/\x01page", MeegleID: "5"})
		require.Len(t, replies, 3)
		n := decodeNotification(t, replies[0])
		require.Equal(t, channel.LevelWarning, n.Level)
		require.Equal(t, kllcerrors.CodeLinkParse, n.Code)
		require.Equal(t, "feature/5-new-feature", decodeState(t, replies[2]).BranchName)
	})

	t.Run("malformed payload", func(t *testing.T) {
		h := newHarness(t, "master")
		replies, err := h.channel.Submit(context.Background(), channel.Message{
			Command: channel.CommandCreateBranch,
			Payload: json.RawMessage(`"nope"`),
		})
		require.NoError(t, err)
		require.Equal(t, kllcerrors.CodeInvalidRequest, decodeNotification(t, replies[0]).Code)
	})
}

func TestSaveState(t *testing.T) {
	t.Run("advance moves to next step", func(t *testing.T) {
		h := newHarness(t, "feature/42-login")
		state := decodeState(t, h.submit(t, channel.CommandReady, nil)[0])

		state.CurrentStepIndex = 1
		state.Steps[engine.StepTechDesign] = engine.StepRecord{Status: engine.StatusCompleted, Value: "https://x.io/td"}
		replies := h.submit(t, channel.CommandSaveState, state)
		require.Len(t, replies, 1)
		saved := decodeState(t, replies[0])
		require.Equal(t, 1, saved.CurrentStepIndex)
		require.Equal(t, "https://x.io/td", saved.Steps[engine.StepTechDesign].Value)
	})

	t.Run("out of order resyncs stored state", func(t *testing.T) {
		h := newHarness(t, "feature/42-login")
		state := decodeState(t, h.submit(t, channel.CommandReady, nil)[0])

		state.CurrentStepIndex = 5
		replies := h.submit(t, channel.CommandSaveState, state)
		require.Len(t, replies, 2)
		require.Equal(t, 0, decodeState(t, replies[0]).CurrentStepIndex)
		require.Equal(t, kllcerrors.CodeOutOfOrder, decodeNotification(t, replies[1]).Code)
	})

	t.Run("missing required value is rejected", func(t *testing.T) {
		h := newHarness(t, "feature/42-login")
		state := decodeState(t, h.submit(t, channel.CommandReady, nil)[0])
		for i := 0; i < 3; i++ {
			state.CurrentStepIndex = i + 1
			state = decodeState(t, h.submit(t, channel.CommandSaveState, state)[0])
		}
		require.Equal(t, 3, state.CurrentStepIndex)

		state.CurrentStepIndex = 4
		replies := h.submit(t, channel.CommandSaveState, state)
		require.Equal(t, kllcerrors.CodeInvalidStep, decodeNotification(t, replies[len(replies)-1]).Code)
	})
}

func TestExecuteGitAction(t *testing.T) {
	t.Run("commit and tag with legacy payload", func(t *testing.T) {
		h := newHarness(t, "master")
		h.submit(t, channel.CommandCreateBranch, engine.CycleRequest{PrdLink: "https://x.io/specs/login", MeegleID: "42"})

		replies := h.submit(t, channel.CommandExecuteGitAction, map[string]string{
			"action": "commit",
			"stepId": engine.StepTestDeploy,
			"tag":    "test",
		})
		require.Len(t, replies, 1)
		n := decodeNotification(t, replies[0])
		require.Equal(t, channel.LevelInfo, n.Level)
		require.Equal(t, "Committed and tagged: test-feature/42-0305-09-07", n.Message)
		require.Equal(t, []string{"feat(42): update for testDeploy"}, h.vcs.commits)
	})

	t.Run("tag failure reports E005", func(t *testing.T) {
		h := newHarness(t, "master")
		h.vcs.tagErr = errors.New("tag already exists")
		h.submit(t, channel.CommandCreateBranch, engine.CycleRequest{PrdLink: "https://x.io/specs/login", MeegleID: "42"})

		replies := h.submit(t, channel.CommandExecuteGitAction, channel.GitActionPayload{
			Action:    "commit",
			StepID:    engine.StepStageDeploy,
			TagPrefix: "stage",
		})
		require.Equal(t, kllcerrors.CodeTag, decodeNotification(t, replies[0]).Code)
		require.Len(t, h.vcs.commits, 1)
	})

	t.Run("requires a session", func(t *testing.T) {
		h := newHarness(t, "")
		replies := h.submit(t, channel.CommandExecuteGitAction, channel.GitActionPayload{Action: "commit", StepID: "development"})
		require.Equal(t, kllcerrors.CodeInvalidRequest, decodeNotification(t, replies[0]).Code)
	})
}

func TestSteps(t *testing.T) {
	h := newHarness(t, "main")
	steps := h.channel.Steps()
	require.Len(t, steps, engine.StepCount())
	require.Equal(t, engine.StepSelfTest, steps[3].ID())
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, "main")
	replies := h.submit(t, "openPanel", nil)
	require.Len(t, replies, 1)
	n := decodeNotification(t, replies[0])
	require.Equal(t, channel.LevelError, n.Level)
	require.Equal(t, kllcerrors.CodeInvalidRequest, n.Code)
}

func TestSubscribeAndObserver(t *testing.T) {
	var mu sync.Mutex
	outcomes := map[channel.Command]string{}
	h := newHarness(t, "feature/42-login", channel.WithObserver(func(cmd channel.Command, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		outcomes[cmd] = outcome
	}))

	events, cancel := h.channel.Subscribe()
	defer cancel()

	h.submit(t, channel.CommandReady, nil)

	select {
	case msg := <-events:
		require.Equal(t, channel.CommandUpdateState, msg.Command)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	mu.Lock()
	require.Equal(t, "ok", outcomes[channel.CommandReady])
	mu.Unlock()
}

func TestSubmitBusy(t *testing.T) {
	// No worker is running, so the first intent stays queued.
	ch := channel.New(&engine.Engine{}, channel.WithQueueSize(1))
	ready := channel.Message{Command: channel.CommandReady}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ch.Submit(ctx, ready)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = ch.Submit(context.Background(), ready)
	require.ErrorIs(t, err, channel.ErrChannelBusy)
}

func TestSubmitAfterClose(t *testing.T) {
	ch := channel.New(&engine.Engine{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ch.Run(ctx), context.Canceled)

	_, err := ch.Submit(context.Background(), channel.Message{Command: channel.CommandReady})
	require.ErrorIs(t, err, channel.ErrChannelClosed)
}
