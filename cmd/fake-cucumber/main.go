package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/denizgursoy/fake-cucumber/internal/app"
	"github.com/denizgursoy/fake-cucumber/internal/comment_parser"
	"github.com/denizgursoy/fake-cucumber/internal/steps"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(steps.Register, comment_parser.NewGoSourceFileParser())
	if err := application.NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, app.ErrRunFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}
