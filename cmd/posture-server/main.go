package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	postureanalyzer "github.com/menta2k/posture-analyzer"
	"github.com/menta2k/posture-analyzer/internal/backend"
	"github.com/menta2k/posture-analyzer/internal/config"
	"github.com/menta2k/posture-analyzer/internal/metrics"
	"github.com/menta2k/posture-analyzer/internal/server"
	"github.com/menta2k/posture-analyzer/internal/utils"
	"github.com/menta2k/posture-analyzer/pkg/insights"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file (JSON)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := utils.SetupLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting the posture analyzer service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := backend.NewLandmarkProvider(cfg.Landmarks)
	if err != nil {
		log.Fatalf("landmark backend: %v", err)
	}
	log.WithFields(log.Fields{
		"backend": cfg.Landmarks.Backend,
		"url":     cfg.Landmarks.URL,
	}).Info("landmark provider ready")

	metrics.Register()
	service := postureanalyzer.NewWithConfig(provider, cfg.AnalyzerThresholds(), cfg.OverlayStyle())
	service.SetObserver(metrics.ObserveAnalysis)

	var generator *insights.Generator
	chat, err := backend.NewChatClient(ctx, cfg.Insights)
	if err != nil {
		log.WithError(err).Warn("insights disabled")
	} else {
		if closer, ok := chat.(io.Closer); ok {
			defer closer.Close()
		}
		generator = insights.NewGenerator(chat)
		log.Infof("insights provider: %s", chat.SourceName())
	}

	srv := server.New(cfg.Server, service, generator)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
