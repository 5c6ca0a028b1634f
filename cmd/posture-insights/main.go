package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/menta2k/posture-analyzer/internal/backend"
	"github.com/menta2k/posture-analyzer/internal/config"
	"github.com/menta2k/posture-analyzer/internal/utils"
	"github.com/menta2k/posture-analyzer/pkg/anamnesis"
	"github.com/menta2k/posture-analyzer/pkg/insights"
)

func main() {
	var roleLabel, csvPath, provider, configPath, logLevel string
	var asJSON bool

	flag.StringVar(&roleLabel, "role", "", "audience: nutritionist or trainer")
	flag.StringVar(&csvPath, "csv", "", "intake CSV (';' separated, header row plus one data row)")
	flag.StringVar(&provider, "provider", "", "language model provider: azure, openai, gemini, ollama or stub")
	flag.StringVar(&configPath, "config", "", "config file (JSON)")
	flag.StringVar(&logLevel, "loglevel", "", "log level: debug, info, warn, error")
	flag.BoolVar(&asJSON, "json", false, "print the result as JSON")
	flag.Parse()

	if roleLabel == "" || csvPath == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -role nutritionist|trainer -csv intake.csv [-provider azure|openai|gemini|ollama|stub]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	if err := utils.SetupLogging(logLevel, "cli"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if provider != "" {
		cfg.Insights.Provider = provider
	}

	role, err := insights.ParseRole(roleLabel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	text, err := anamnesis.ReadFile(csvPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	chat, err := backend.NewChatClient(ctx, cfg.Insights)
	if err != nil {
		log.Fatalf("insights provider: %v", err)
	}
	if closer, ok := chat.(io.Closer); ok {
		defer closer.Close()
	}

	log.WithFields(log.Fields{"role": role, "source": chat.SourceName()}).Debug("generating insights")
	result, err := insights.NewGenerator(chat).Generate(ctx, role, text)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s insights (%s)\n\n", role, result.Source)
	for _, b := range result.Bullets {
		fmt.Printf("- %s\n", b)
	}
}
