package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Messenger sends outbound messages over a shared gateway session. It
// satisfies the worker's and the loops' messenger interfaces.
type Messenger struct {
	session *discordgo.Session
}

// NewMessenger wraps an open session.
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

// SendMessage posts plain text to a channel.
func (m *Messenger) SendMessage(channelID, content string) error {
	if _, err := m.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

// SendPrompt posts a confirmation prompt with confirm / add-context /
// cancel buttons carrying the request id.
func (m *Messenger) SendPrompt(channelID, content, requestID string) (string, error) {
	msg, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Components: []discordgo.MessageComponent{promptButtons(requestID)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send prompt to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// UpdatePrompt rewrites a prompt in place, keeping its buttons.
func (m *Messenger) UpdatePrompt(channelID, messageID, content, requestID string) error {
	components := []discordgo.MessageComponent{promptButtons(requestID)}
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to update prompt %s: %w", messageID, err)
	}
	return nil
}

// ResolvePrompt replaces a prompt with final text and strips the
// buttons so it can no longer be acted on.
func (m *Messenger) ResolvePrompt(channelID, messageID, content string) error {
	components := []discordgo.MessageComponent{}
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve prompt %s: %w", messageID, err)
	}
	return nil
}

// SendDM opens (or reuses) a DM channel with the user and sends text.
func (m *Messenger) SendDM(userID, content string) error {
	channel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}
	if _, err := m.session.ChannelMessageSend(channel.ID, content); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return nil
}

func promptButtons(requestID string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Confirm date/time",
				Style:    discordgo.SuccessButton,
				CustomID: customConfirm + ":" + requestID,
			},
			discordgo.Button{
				Label:    "Add context",
				Style:    discordgo.PrimaryButton,
				CustomID: customContext + ":" + requestID,
			},
			discordgo.Button{
				Label:    "Cancel",
				Style:    discordgo.DangerButton,
				CustomID: customCancel + ":" + requestID,
			},
		},
	}
}
