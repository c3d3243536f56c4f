package cmd

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/nfrund/chatwire/internal/domain"
)

// formatMessage renders one chat line.
func formatMessage(msg domain.ChatMessage, colours bool) string {
	ts := msg.CreatedAt.Local().Format("15:04:05")
	if !colours {
		return fmt.Sprintf("[%s] %s: %s", ts, msg.Author, msg.Text)
	}
	return fmt.Sprintf("%s %s %s",
		color.New(color.FgGray).Render("["+ts+"]"),
		color.New(color.FgCyan, color.OpBold).Render(msg.Author+":"),
		msg.Text,
	)
}

func printMessage(w io.Writer, msg domain.ChatMessage, colours bool) {
	fmt.Fprintln(w, formatMessage(msg, colours))
}
