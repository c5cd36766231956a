package clients

import (
	"arbdash/clients/discord"
	"arbdash/clients/notifier"
	"arbdash/clients/telegram"
	"arbdash/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord  *discord.DiscordClient
	Telegram *telegram.TelegramClient
	Notifier *notifier.MultiNotifier // Combined notifier for all configured channels
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Only configured channels join the combined notifier; unconfigured
	// clients stay constructed but dormant.
	var discordNotifier, telegramNotifier notifier.Notifier
	if cfg.Discord.BotToken != "" {
		discordNotifier = discordClient
	}
	if cfg.Telegram.BotToken != "" {
		telegramNotifier = telegramClient
	}

	return &Clients{
		Logger:   logger,
		Discord:  discordClient,
		Telegram: telegramClient,
		Notifier: notifier.NewMultiNotifier(discordNotifier, telegramNotifier),
	}
}
