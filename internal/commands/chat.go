package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grimoco/grimchat/internal/config"
	"github.com/grimoco/grimchat/internal/gemini"
	"github.com/grimoco/grimchat/internal/models"
	"github.com/grimoco/grimchat/internal/session"
	"github.com/grimoco/grimchat/internal/speech"
	"github.com/grimoco/grimchat/internal/transcript"
	"github.com/grimoco/grimchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with Grim AI.

The chat maintains conversation context across messages.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	persona, err := resolvePersona(cfg)
	if err != nil {
		return err
	}

	key, err := config.APIKey()
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(key,
		gemini.WithModel(models.ModelFromName(getModel())),
		gemini.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	chat := client.StartChat(persona.Instruction)

	store := transcript.NewStore()
	speaker := speech.NewCommandSpeaker(cfg.SpeechCommand)

	ctrl := session.New(store, chat, speaker, persona)
	ctrl.SetSpeechEnabled(cfg.SpeakResponses)
	ctrl.EnableSearch(searchFlag)
	ctrl.Start()

	return tui.Run(ctrl, store, cfg)
}
