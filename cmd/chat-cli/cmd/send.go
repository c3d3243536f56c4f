package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/chatwire/internal/domain"
)

var sendTimeout time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message and wait for its broadcast",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
		defer cancel()

		c := newClient()
		defer c.Close()

		echoed := make(chan domain.ChatMessage, 1)
		c.OnMessageAdded(func(msg domain.ChatMessage) {
			if msg.Text == text {
				select {
				case echoed <- msg:
				default:
				}
			}
		})

		if err := c.Connect(ctx); err != nil {
			return err
		}
		c.Send(text)

		select {
		case msg := <-echoed:
			printMessage(cmd.OutOrStdout(), msg, cfg.Colours)
			return nil
		case <-ctx.Done():
			return errors.New("no broadcast received before timeout")
		}
	},
}

func init() {
	sendCmd.Flags().DurationVarP(&sendTimeout, "timeout", "t", 5*time.Second, "How long to wait for the broadcast")
	rootCmd.AddCommand(sendCmd)
}
