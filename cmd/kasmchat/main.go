package main

import (
	"os"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
