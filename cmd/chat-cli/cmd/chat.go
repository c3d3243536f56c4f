package cmd

import (
	"bufio"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/nfrund/chatwire/internal/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Connects to the hub and sends every line typed on stdin as a message.
Messages broadcast by the hub are printed as they arrive. Exit with Ctrl-D or Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := newClient()
		defer c.Close()

		out := cmd.OutOrStdout()
		c.OnMessageAdded(func(msg domain.ChatMessage) {
			printMessage(out, msg, cfg.Colours)
		})

		if err := c.Connect(ctx); err != nil {
			return err
		}
		if cfg.Colours {
			color.Fprintf(out, "<green>Connected to %s</>\n", cfg.URL)
		} else {
			fmt.Fprintf(out, "Connected to %s\n", cfg.URL)
		}

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				c.Send(line)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
