package channel

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command names a message kind
type Command string

// Inbound commands, sent by a UI.
const (
	CommandReady            Command = "ready"
	CommandCreateBranch     Command = "createBranch"
	CommandSaveState        Command = "saveState"
	CommandExecuteGitAction Command = "executeGitAction"
)

// Outbound commands, sent to a UI.
const (
	CommandUpdateState Command = "updateState"
	CommandNotify      Command = "notify"
)

// Message is the envelope exchanged with a UI
type Message struct {
	ID      string          `json:"id,omitempty"`
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Level is the severity of a notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the payload of a notify message
type Notification struct {
	Level   Level  `json:"level"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// GitActionPayload is the payload of executeGitAction. Older UIs send the
// tag prefix as "tag".
type GitActionPayload struct {
	Action    string `json:"action"`
	StepID    string `json:"stepId"`
	TagPrefix string `json:"tagPrefix,omitempty"`
	Tag       string `json:"tag,omitempty"`
}

// Prefix returns the tag prefix, preferring tagPrefix over the legacy field
func (p GitActionPayload) Prefix() string {
	if p.TagPrefix != "" {
		return p.TagPrefix
	}
	return p.Tag
}

// NewMessage builds a message with a fresh id
func NewMessage(command Command, payload any) (Message, error) {
	msg := Message{ID: uuid.NewString(), Command: command}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", command, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the payload into v
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Command)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("malformed %s payload: %w", m.Command, err)
	}
	return nil
}
