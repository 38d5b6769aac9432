package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"renderstudio/internal/bootstrap"
	"renderstudio/internal/domain"
	"renderstudio/internal/infra"
	"renderstudio/internal/storage"
	"renderstudio/internal/studio"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		images      listFlag
		adjustments listFlag
		promptFlag  string
		presetFlag  string
		outFlag     string
	)

	flag.Var(&images, "image", "reference image path (repeatable, up to 5)")
	flag.StringVar(&promptFlag, "prompt", "", "prompt text (appended after -preset when both are given)")
	flag.StringVar(&presetFlag, "preset", "", "context preset key (hotel, hospital, corporate, museum, spa, airport)")
	flag.Var(&adjustments, "adjust", "adjustment key to append (repeatable)")
	flag.StringVar(&outFlag, "out", "", "output directory (defaults to EXPORT_DIR)")
	flag.Parse()

	_ = godotenv.Load()

	if len(images) == 0 {
		exitWithError(errors.New("at least one -image is required"))
	}
	if len(images) > domain.MaxReferenceImages {
		exitWithError(fmt.Errorf("at most %d -image flags are allowed", domain.MaxReferenceImages))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "render").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, &logger)
	if err != nil {
		exitWithError(err)
	}
	outDir := strings.TrimSpace(outFlag)
	if outDir == "" {
		outDir = cfg.ExportDir
	}
	exports, err := storage.NewFileStore(outDir)
	if err != nil {
		exitWithError(err)
	}

	session := studio.NewSession("cli", components.SessionOptions(&logger))
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			exitWithError(fmt.Errorf("read %s: %w", path, err))
		}
		if _, err := session.AddImage(ctx, data); err != nil {
			exitWithError(fmt.Errorf("%s: %s", path, domain.Message(err)))
		}
	}
	if presetFlag != "" {
		if err := session.ApplyPreset(presetFlag); err != nil {
			exitWithError(err)
		}
	}
	if promptFlag != "" {
		if err := session.AppendPrompt(promptFlag); err != nil {
			exitWithError(err)
		}
	}
	for _, key := range adjustments {
		if err := session.ApplyAdjustment(key); err != nil {
			exitWithError(err)
		}
	}

	logger.Info().Int("images", len(images)).Msg("generating")
	if err := session.Generate(ctx); err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			exitWithError(errors.New("a prompt is required: pass -prompt or -preset"))
		}
		exitWithError(errors.New(domain.Message(err)))
	}

	path, err := session.Export(ctx, exports)
	if err != nil {
		exitWithError(errors.New(domain.Message(err)))
	}
	fmt.Println(path)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "render: %v\n", err)
	os.Exit(1)
}
