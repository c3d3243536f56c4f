package main

import "github.com/nfrund/chatwire/cmd/chat-cli/cmd"

func main() {
	cmd.Execute()
}
