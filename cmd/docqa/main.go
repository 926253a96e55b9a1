package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/config"
	"docqa/internal/service"
	"docqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  string
		question string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&question, "q", "", "Answer a single question and exit instead of starting the chat UI")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) > 1 {
		fmt.Println("Usage: docqa [--config=config.yaml] [-q question] [file.pdf]")
		os.Exit(1)
	}
	if question != "" && len(inputs) == 0 {
		log.Fatalf("-q needs a PDF to answer from")
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	interactive := question == ""
	logger, logFile, err := newLogger(cfg.Log, interactive)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	a, err := assemble(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble components: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var report *service.IngestReport
	if len(inputs) == 1 {
		report, err = a.session.Ingest(ctx, inputs[0])
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	}

	if !interactive {
		answer, err := a.session.Query(ctx, question, cfg.Retrieval.TopK, cfg.Retrieval.ScoreThreshold)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		fmt.Println(answer)
		return
	}

	settings := tui.Settings{TopK: cfg.Retrieval.TopK, ScoreThreshold: cfg.Retrieval.ScoreThreshold}
	m := tui.New(ctx, a.session, settings, report)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
		log.Fatal(err)
	}
}
