package main

import (
	"context"
	"time"

	"github.com/niksmo/prime-house/config"
	"github.com/niksmo/prime-house/internal/app"
	"github.com/niksmo/prime-house/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	listings := app.New(sigCtx, cfg)

	listings.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	listings.Close(ctx)
}
