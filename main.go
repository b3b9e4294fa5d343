package main

import "github.com/TWRT/board-sync/internal/cli"

func main() {
	cli.Execute()
}
