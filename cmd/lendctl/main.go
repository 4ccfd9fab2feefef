package main

import (
	"context"
	"os"

	"github.com/lumilend/backend/internal/observability"
)

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		observability.NewLogger("local").Error("lendctl failed", "err", err)
		os.Exit(1)
	}
}
