package main

import (
	"os"

	"ridecipher/cmd/ridecipher/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
