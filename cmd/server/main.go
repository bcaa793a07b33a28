package main

import (
	"os"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/app"
)

func main() {
	os.Exit(app.Run())
}
