package platform

import "context"

type (
	EmbedField struct {
		Name   string
		Value  string
		Inline bool
	}

	Embed struct {
		Title       string
		URL         string
		Description string
		Color       int
		Thumbnail   string
		Image       string
		Fields      []EmbedField
		Footer      string
	}

	ButtonStyle int

	Button struct {
		CustomID string
		Label    string
		Style    ButtonStyle
	}

	Reply struct {
		Embeds    []Embed
		Buttons   []Button
		Ephemeral bool
	}

	// Responder answers one interaction. Respond must be called exactly once,
	// after an optional Defer.
	Responder interface {
		Defer(ctx context.Context, ephemeral bool) error
		Respond(ctx context.Context, reply *Reply) error
	}
)

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
)
