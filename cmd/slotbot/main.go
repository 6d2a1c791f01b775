package main

import "github.com/vietddude/slotbot/internal/cli"

func main() {
	cli.Execute()
}
