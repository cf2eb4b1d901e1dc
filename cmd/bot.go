package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/NeuroTechWizards/ai-market/internal/bot"
	"github.com/NeuroTechWizards/ai-market/pkg/rfsdclient"
)

var botBackendURL string

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the Telegram bot fronting the RFSD backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Bot.Token == "" {
			return eris.New("bot: token is required (RFSD_BOT_TOKEN)")
		}

		backendURL := botBackendURL
		if backendURL == "" {
			backendURL = cfg.Bot.BackendURL
		}

		tg, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			return eris.Wrap(err, "bot: connect telegram")
		}
		zap.L().Info("bot authorized", zap.String("username", tg.Self.UserName))

		router := bot.NewRouter(rfsdclient.New(backendURL))

		sendRate := cfg.Bot.SendRate
		if sendRate <= 0 {
			sendRate = 1
		}
		limiter := rate.NewLimiter(rate.Limit(sendRate), 1)

		ctx := cmd.Context()

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := tg.GetUpdatesChan(u)

		go func() {
			<-ctx.Done()
			tg.StopReceivingUpdates()
		}()

		for update := range updates {
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			chatID := update.Message.Chat.ID
			text := update.Message.Text

			if update.Message.IsCommand() {
				if update.Message.Command() == "start" {
					if err := limiter.Wait(ctx); err != nil {
						return nil
					}
					if _, err := tg.Send(tgbotapi.NewMessage(chatID, bot.Welcome)); err != nil {
						zap.L().Error("bot send failed", zap.Error(err))
					}
				}
				continue
			}

			// Show typing while the backend works the request.
			tg.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

			reply := router.Route(ctx, text)

			if err := limiter.Wait(ctx); err != nil {
				return nil
			}

			if reply.IsDocument() {
				doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
					Name:  reply.Filename,
					Bytes: reply.Document,
				})
				doc.Caption = reply.Caption
				if _, err := tg.Send(doc); err != nil {
					zap.L().Error("bot send document failed", zap.Error(err))
				}
				continue
			}

			if _, err := tg.Send(tgbotapi.NewMessage(chatID, reply.Text)); err != nil {
				zap.L().Error("bot send failed", zap.Error(err))
			}
		}

		return nil
	},
}

func init() {
	botCmd.Flags().StringVar(&botBackendURL, "backend", "", "RFSD backend base URL (default from config)")
	rootCmd.AddCommand(botCmd)
}
