package discord

import (
	"fmt"
	"time"

	"arbdash/clients/notifier"
	"arbdash/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordClient sends bot alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// SendAlert sends a rich embedded alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendAlert(alert notifier.Alert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := dc.buildAlertEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord alert",
		zap.String("severity", string(alert.Severity)),
		zap.String("category", alert.Category),
	)
}

func (dc *DiscordClient) buildAlertEmbed(alert notifier.Alert) *discordgo.MessageEmbed {
	// Choose color based on severity
	color := 0x3498DB // Blue for info
	switch alert.Severity {
	case notifier.SeverityCritical:
		color = 0xE74C3C // Red
	case notifier.SeverityWarning:
		color = 0xE67E22 // Orange
	}

	category := alert.Category
	if category == "" {
		category = "general"
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Severity",
			Value:  string(alert.Severity),
			Inline: true,
		},
		{
			Name:   "Category",
			Value:  category,
			Inline: true,
		},
	}

	// Format timestamp for footer (PST)
	pst, _ := time.LoadLocation("America/Los_Angeles")
	ts := alert.Time()
	if ts.IsZero() {
		ts = time.Now()
	}
	footerText := fmt.Sprintf("arbdash * %s", ts.In(pst).Format("1/2/2006, 3:04:05PM (MST)"))

	return &discordgo.MessageEmbed{
		Title:       dc.buildAlertTitle(alert),
		Description: alert.Message,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText,
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func (dc *DiscordClient) buildAlertTitle(alert notifier.Alert) string {
	switch alert.Severity {
	case notifier.SeverityCritical:
		return "🚨 Critical Alert"
	case notifier.SeverityWarning:
		return "⚠️ Warning"
	}
	return "ℹ️ Info"
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
