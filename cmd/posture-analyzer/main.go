package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	postureanalyzer "github.com/menta2k/posture-analyzer"
	"github.com/menta2k/posture-analyzer/internal/backend"
	"github.com/menta2k/posture-analyzer/internal/config"
	"github.com/menta2k/posture-analyzer/internal/utils"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

func main() {
	var front, back, left, right string
	var configPath, backendName, url, model, fixture string
	var outDir, ext, logLevel string
	var quality int
	var overlay bool
	var patientID string

	flag.StringVar(&front, "front", "", "front view image path or URL")
	flag.StringVar(&back, "back", "", "back view image path or URL")
	flag.StringVar(&left, "left", "", "left view image path or URL")
	flag.StringVar(&right, "right", "", "right view image path or URL")

	flag.StringVar(&configPath, "config", "", "config file (JSON)")
	flag.StringVar(&backendName, "backend", "", "landmark backend: posesvc, ollama or fixture")
	flag.StringVar(&url, "url", "", "landmark backend URL (defaults: posesvc=http://localhost:8090, ollama=http://localhost:11434)")
	flag.StringVar(&model, "model", "", "vision model for the ollama backend")
	flag.StringVar(&fixture, "landmarks", "", "landmark JSON file for the fixture backend")
	flag.StringVar(&patientID, "patient", "", "patient identifier stored in the report")

	flag.StringVar(&outDir, "out", "", "output directory")
	flag.StringVar(&ext, "ext", "", "overlay format: jpg|png|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP overlay quality (1-100)")
	flag.BoolVar(&overlay, "overlay", true, "write overlay images")
	flag.StringVar(&logLevel, "loglevel", "", "log level: debug, info, warn, error")

	flag.Parse()

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

	override(&cfg.Landmarks.Backend, backendName)
	override(&cfg.Landmarks.URL, url)
	override(&cfg.Landmarks.Model, model)
	override(&cfg.Landmarks.FixturePath, fixture)
	override(&cfg.Output.OutputDir, outDir)
	override(&cfg.Output.DefaultFormat, ext)
	if quality > 0 {
		cfg.Output.Quality = quality
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	inputs := []struct {
		view types.View
		path string
	}{
		{types.ViewFront, front},
		{types.ViewBack, back},
		{types.ViewLeft, left},
		{types.ViewRight, right},
	}

	provider, err := backend.NewLandmarkProvider(cfg.Landmarks)
	if err != nil {
		log.Fatalf("landmark backend: %v", err)
	}
	service := postureanalyzer.NewWithConfig(provider, cfg.AnalyzerThresholds(), cfg.OverlayStyle())

	req := postureanalyzer.Request{PatientID: patientID}
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		img, err := service.LoadImage(in.path)
		if err != nil {
			log.Fatalf("%s view: %v", in.view, err)
		}
		req.Views = append(req.Views, postureanalyzer.ViewImage{View: in.view, Image: img})
	}
	if len(req.Views) == 0 {
		log.Fatalf("usage: %s [-front img] [-back img] [-left img] [-right img] [-backend posesvc|ollama|fixture] [-url server_url] [-landmarks pose.json] [-out outdir] [-ext jpg|png|webp]", filepath.Base(os.Args[0]))
	}

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatalf("output directory: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	session, err := service.AnalyzeViews(ctx, req)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	for i, report := range session.Images {
		entry := log.WithField("view", report.View)
		if !report.OK {
			entry.Warn(report.Message)
			continue
		}
		entry.WithField("roll", fmt.Sprintf("%.1f°", report.RollCorrectionDeg)).Infof("%d flags", len(report.Flags))
		for _, f := range report.Flags {
			entry.Info(f)
		}
		if report.QualityNote != "" {
			entry.Warn(report.QualityNote)
		}

		if !overlay {
			continue
		}
		img := req.Views[i].Image
		drawn, err := service.DrawOverlays(ctx, img, report)
		if err != nil {
			entry.WithError(err).Error("overlay failed")
			continue
		}
		path := utils.OutputFilename(cfg.Output.OutputDir, report.View.String(), "overlay", cfg.Output.DefaultFormat)
		if err := service.SaveImage(drawn, path, cfg.Output.DefaultFormat, cfg.Output.Quality); err != nil {
			entry.WithError(err).Error("overlay save failed")
			continue
		}
		entry.Infof("wrote %s", path)
	}

	reportPath := filepath.Join(cfg.Output.OutputDir, "report.json")
	if err := utils.WriteJSON(reportPath, session); err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("wrote %s", reportPath)
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
