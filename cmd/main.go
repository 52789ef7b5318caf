package main

import (
	"os"

	"github.com/soundprediction/parascore/cmd/parascore"
)

func main() {
	if err := parascore.Execute(); err != nil {
		os.Exit(1)
	}
}
