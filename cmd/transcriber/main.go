package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"videoscribe/transcription-service/internal/config"
	"videoscribe/transcription-service/internal/pipeline"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	input := flag.String("input", "", "path to the media file to transcribe")
	output := flag.String("output", "", "write the JSON result to this file instead of stdout")
	chunkDuration := flag.Float64("chunk-duration", 0, "target chunk duration in seconds (overrides env)")
	flag.Parse()

	if *input == "" && flag.NArg() > 0 {
		*input = flag.Arg(0)
	}

	log := config.NewLogger()

	if *input == "" {
		log.Fatal("Usage: transcriber -input <media file> [-output result.json]")
	}

	cfg := config.FromEnv()
	if *chunkDuration > 0 {
		cfg.ChunkDuration = *chunkDuration
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Cancel the run on SIGINT/SIGTERM; in-flight chunk requests stop
	// cooperatively and temporary artifacts are reclaimed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := pipeline.New(cfg, log).Run(ctx, *input)

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("Failed to encode result")
	}

	if *output != "" {
		if err := os.WriteFile(*output, encoded, 0o644); err != nil {
			log.WithError(err).Fatal("Failed to write result file")
		}
		log.WithField("output", *output).Info("Result written")
	} else {
		fmt.Println(string(encoded))
	}

	if result.Status != "success" {
		os.Exit(1)
	}
}
