package main

import (
	"os"

	"github.com/kplatou/harborwatt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
