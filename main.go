package main

import (
	"os"

	"github.com/jamesr66a/translate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
