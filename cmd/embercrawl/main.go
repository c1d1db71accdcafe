package main

import (
	"context"

	"embercrawl/cmd/embercrawl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
