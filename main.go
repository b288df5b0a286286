package main

import (
	"os"

	"github.com/kandinsky-studio/design-shop/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
