package main

import (
	"context"
	"os"

	"read-lines/internal/app"
)

func main() {
	runner := &app.Runner{Stdout: os.Stdout, Stderr: os.Stderr, Stdin: os.Stdin}
	os.Exit(runner.Run(context.Background(), os.Args))
}
