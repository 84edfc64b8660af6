package main

import (
	"os"

	"github.com/openpulpit/openpulpit/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
