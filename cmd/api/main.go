package main

import (
	"fmt"
	"os"

	"github.com/edueval/teaching-system/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "teaching-system:", err)
		os.Exit(1)
	}
}
