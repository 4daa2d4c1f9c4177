package gateway

import (
	"github.com/xtding233/pocket-encounters/internal/bot"
	"github.com/xtding233/pocket-encounters/internal/encounter"
)

// Frame types.
const (
	TypeCommand     = "command"
	TypeInteraction = "interaction"
	TypeRender      = "render"
	TypeEdit        = "edit"
	TypeAck         = "ack"
	TypeError       = "error"
)

// Frame is one JSON message on the socket. Commands and interactions come
// from the client; render, edit, ack and error frames go to it.
type Frame struct {
	Type string `json:"type"`
	// ID correlates a command with its replies, or names an interaction.
	ID          string                 `json:"id,omitempty"`
	MessageID   string                 `json:"message_id,omitempty"`
	ReplyTo     string                 `json:"reply_to,omitempty"`
	Command     *bot.Command           `json:"command,omitempty"`
	Interaction *encounter.Interaction `json:"interaction,omitempty"`
	View        *encounter.View        `json:"view,omitempty"`
	Error       string                 `json:"error,omitempty"`
}
