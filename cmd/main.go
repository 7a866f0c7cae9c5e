package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"papertrail_cli/internal/config"
	"papertrail_cli/internal/logger"
	"papertrail_cli/internal/output"
	"papertrail_cli/internal/repository"
	"papertrail_cli/internal/service"
)

func main() {
	// an interrupt ends a follow cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, config.NewLoader(os.Stdout), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, loader *config.Loader, args []string, stdout, stderr io.Writer) int {
	cfg, err := loader.Load(args)
	if errors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		return fail(stderr, err)
	}

	log := logger.Get(cfg.LogLevel)
	log.Debugw("config_loaded", cfg.LogFields()...)

	api, err := repository.NewPapertrailAPI(cfg.API, log)
	if err != nil {
		return fail(stderr, err)
	}

	// wire dependencies
	repos := repository.NewRepository(api)
	services := service.NewService(repos, log)

	params, err := services.Resolve(ctx, cfg.Options)
	if err != nil {
		log.Debugw("resolve_failed", "err", err)
		return fail(stderr, err)
	}

	out := output.New(params.Output, stdout, useColor(stdout))
	stats, err := services.Run(ctx, params, out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debugw("interrupted", "pages", stats.Pages, "events", stats.Events)
			return 0
		}
		log.Errorw("search_failed", "err", err, "pages", stats.Pages)
		return fail(stderr, err)
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, err)
	return 1
}

// useColor enables colour only for an interactive stdout without NO_COLOR.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return output.IsTerminal(f)
}
