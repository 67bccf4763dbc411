package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
)

// outbox collects the replies of one intent in order
type outbox struct {
	items []outboxItem
}

type outboxItem struct {
	command Command
	payload any
}

func (o *outbox) update(state *engine.State) {
	o.items = append(o.items, outboxItem{CommandUpdateState, state})
}

func (o *outbox) notify(level Level, code, message string) {
	o.items = append(o.items, outboxItem{CommandNotify, Notification{Level: level, Code: code, Message: message}})
}

func (o *outbox) flush(logger *slog.Logger) []Message {
	msgs := make([]Message, 0, len(o.items))
	for _, item := range o.items {
		msg, err := NewMessage(item.command, item.payload)
		if err != nil {
			logger.Error("failed to encode reply", "command", item.command, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (c *Channel) handleReady(ctx context.Context, out *outbox) error {
	branch, err := c.engine.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current branch: %w", err)
	}
	if branch == "" {
		c.setSession("")
		out.notify(LevelWarning, "", "No branch is checked out.")
		return nil
	}

	c.setSession(branch)
	state, err := c.engine.Resolve(ctx, branch)
	if err != nil {
		return err
	}
	out.update(state)
	return nil
}

func (c *Channel) handleCreateBranch(ctx context.Context, msg Message, out *outbox) error {
	var req engine.CycleRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", kllcerrors.ErrInvalidRequest, err)
	}

	result, err := c.engine.CreateCycle(ctx, req)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		out.notify(LevelWarning, w.Code, w.Message)
	}
	out.notify(LevelInfo, "", fmt.Sprintf("Created branch %s", result.Branch))

	c.setSession(result.Branch)
	out.update(result.State)
	return nil
}

func (c *Channel) handleSaveState(ctx context.Context, msg Message, out *outbox) error {
	var submitted engine.State
	if err := msg.Decode(&submitted); err != nil {
		return fmt.Errorf("%w: %v", kllcerrors.ErrInvalidRequest, err)
	}

	state, err := c.engine.SaveState(ctx, c.Session(), &submitted)
	if err != nil {
		if isRejection(err) {
			c.resync(ctx, out)
		}
		return err
	}
	out.update(state)
	return nil
}

func (c *Channel) handleGitAction(ctx context.Context, msg Message, out *outbox) error {
	var payload GitActionPayload
	if err := msg.Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", kllcerrors.ErrInvalidRequest, err)
	}

	branch := c.Session().Branch
	if branch == "" {
		return fmt.Errorf("%w: no branch in session", kllcerrors.ErrInvalidRequest)
	}
	state, err := c.engine.Resolve(ctx, branch)
	if err != nil {
		return err
	}

	result, err := c.engine.DispatchGitAction(ctx, state, engine.GitAction{
		Action:    engine.GitActionKind(payload.Action),
		StepID:    payload.StepID,
		TagPrefix: payload.Prefix(),
	})
	if err != nil {
		return err
	}

	if result.Tag != "" {
		out.notify(LevelInfo, "", fmt.Sprintf("Committed and tagged: %s", result.Tag))
	} else {
		out.notify(LevelInfo, "", "Committed changes.")
	}
	return nil
}

func isRejection(err error) bool {
	return errors.Is(err, kllcerrors.ErrOutOfOrder) ||
		errors.Is(err, kllcerrors.ErrInvalidStep) ||
		errors.Is(err, kllcerrors.ErrInvalidRequest) ||
		errors.Is(err, kllcerrors.ErrLifecycleFinished) ||
		errors.Is(err, kllcerrors.ErrNotFeatureBranch)
}
