package main

import "github.com/grimoco/grimchat/internal/commands"

func main() {
	commands.Execute()
}
