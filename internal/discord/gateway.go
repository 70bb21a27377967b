// Package discord is the chat-platform surface: it turns slash
// commands and button presses into domain events and renders the
// worker's output back into the channel. Interaction handlers publish
// and return immediately; all real work happens on the event worker.
package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/events"
	"remindbot/internal/logging"
	"remindbot/internal/pending"
)

const (
	customConfirm      = "pending_confirm"
	customContext      = "pending_context"
	customCancel       = "pending_cancel"
	customContextModal = "pending_context_modal"
)

// Gateway owns the bot session and the inbound interaction handlers.
type Gateway struct {
	session *discordgo.Session
	bus     *events.Bus
	pending *pending.Store
}

// NewGateway creates a session and registers the interaction handlers.
// The session is not opened until Start.
func NewGateway(token string, bus *events.Bus, store *pending.Store) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	g := &Gateway{session: session, bus: bus, pending: store}
	session.AddHandler(g.onReady)
	session.AddHandler(g.onInteraction)
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages

	return g, nil
}

// Start opens the gateway connection.
func (g *Gateway) Start() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (g *Gateway) Stop() error {
	return g.session.Close()
}

// Session exposes the underlying session for the shared Messenger.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logging.Info("discord", "Connected as %s", r.User.Username)

	_, err := s.ApplicationCommandCreate(r.User.ID, "", &discordgo.ApplicationCommand{
		Name:        "notify",
		Description: "Create a scheduled notification",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "What should I notify you about?",
				Required:    true,
			},
		},
	})
	if err != nil {
		logging.Info("discord", "Failed to register /notify command: %v", err)
	}
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		g.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		g.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		g.handleModalSubmit(s, i)
	}
}

func (g *Gateway) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "notify" {
		return
	}

	var text string
	for _, opt := range data.Options {
		if opt.Name == "text" {
			text = opt.StringValue()
		}
	}
	if strings.TrimSpace(text) == "" {
		g.respondEphemeral(s, i, "Missing `text` argument for /notify")
		return
	}

	err := g.bus.Publish(events.NotifyRequested{
		Text:      text,
		UserID:    interactionUserID(i),
		ChannelID: i.ChannelID,
	})
	switch {
	case errors.Is(err, events.ErrBusFull):
		g.respondEphemeral(s, i, "I'm a bit backed up right now, please try again shortly.")
	case err != nil:
		g.respondEphemeral(s, i, "Something went wrong, please try again.")
	default:
		g.respondEphemeral(s, i, "Got it, let me put that together...")
	}
}

func (g *Gateway) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	action, requestID, ok := strings.Cut(i.MessageComponentData().CustomID, ":")
	if !ok {
		return
	}

	entry, found := g.pending.Get(requestID)
	if !found {
		g.respondEphemeral(s, i, "This notification is no longer available.")
		return
	}
	userID := interactionUserID(i)
	if entry.UserID != userID {
		g.respondEphemeral(s, i, "Only the original requester can act on this notification.")
		return
	}

	switch action {
	case customConfirm:
		g.publishAndAck(s, i, events.PendingConfirmed{RequestID: requestID, UserID: userID})
	case customCancel:
		g.publishAndAck(s, i, events.PendingCancelled{RequestID: requestID, UserID: userID})
	case customContext:
		g.openContextModal(s, i, requestID)
	}
}

// publishAndAck defers the message update; the worker edits the prompt
// with the final outcome.
func (g *Gateway) publishAndAck(s *discordgo.Session, i *discordgo.InteractionCreate, ev events.Event) {
	if err := g.bus.Publish(ev); err != nil {
		if errors.Is(err, events.ErrBusFull) {
			g.respondEphemeral(s, i, "I'm a bit backed up right now, please try again shortly.")
		} else {
			g.respondEphemeral(s, i, "Something went wrong, please try again.")
		}
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		logging.Debug("discord", "Failed to ack interaction: %v", err)
	}
}

func (g *Gateway) openContextModal(s *discordgo.Session, i *discordgo.InteractionCreate, requestID string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customContextModal + ":" + requestID,
			Title:    "Add context",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "context",
							Label:       "Context",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "Add any details or corrections (optional)",
							Required:    false,
						},
					},
				},
			},
		},
	})
	if err != nil {
		logging.Info("discord", "Failed to open context modal: %v", err)
	}
}

func (g *Gateway) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	_, requestID, ok := strings.Cut(data.CustomID, ":")
	if !ok {
		return
	}

	var note string
	for _, row := range data.Components {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actions.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == "context" {
				note = strings.TrimSpace(input.Value)
			}
		}
	}

	g.publishAndAck(s, i, events.ContextSubmitted{
		RequestID: requestID,
		UserID:    interactionUserID(i),
		Context:   note,
	})
}

func (g *Gateway) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Debug("discord", "Failed to respond to interaction: %v", err)
	}
}

// interactionUserID works for both guild interactions (Member) and DMs
// (User).
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
