package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// maxLineSize bounds one newline-delimited message
const maxLineSize = 1 << 20

// ServeStdio reads newline-delimited JSON messages from r, submits each to
// c and writes the replies to w, one JSON message per line. It returns when
// r is exhausted or ctx is cancelled.
func ServeStdio(ctx context.Context, c *Channel, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			reply, encErr := NewMessage(CommandNotify, Notification{
				Level:   LevelError,
				Code:    kllcerrors.CodeInvalidRequest,
				Message: fmt.Sprintf("malformed message: %v", err),
			})
			if encErr != nil {
				return encErr
			}
			if err := enc.Encode(reply); err != nil {
				return fmt.Errorf("failed to write reply: %w", err)
			}
			continue
		}

		replies, err := c.Submit(ctx, msg)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrChannelClosed) {
				return err
			}
			return fmt.Errorf("failed to submit %s: %w", msg.Command, err)
		}
		for _, reply := range replies {
			if err := enc.Encode(reply); err != nil {
				return fmt.Errorf("failed to write reply: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}
	return nil
}
