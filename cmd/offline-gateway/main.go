package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/its7amo/clean-and-green-website-sub003/internal/config"
	"github.com/its7amo/clean-and-green-website-sub003/internal/fetch"
	"github.com/its7amo/clean-and-green-website-sub003/internal/gateway"
	"github.com/its7amo/clean-and-green-website-sub003/internal/lifecycle"
	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.OpenSQLite(cfg.Cache.DB)
	if err != nil {
		logrus.Fatalf("Failed to open cache store: %v", err)
	}
	defer st.Close()

	origin, err := cfg.OriginURL()
	if err != nil {
		logrus.Fatalf("Invalid upstream origin: %v", err)
	}

	registry := lifecycle.NewRegistry()
	controller := lifecycle.NewController(lifecycle.Config{
		Version:  cfg.Cache.Version,
		Origin:   origin,
		Manifest: cfg.Cache.Precache,
		Rule:     fetch.Rule{APIPrefix: cfg.Cache.APIPrefix},
		Store:    st,
		Registry: registry,
		Metrics:  fetch.NewMetrics(nil),
	})

	// A failed install leaves the registry unclaimed: stale-but-working
	// beats broken-but-new.
	if err := controller.Install(context.Background()); err != nil {
		logrus.Fatalf("Install failed for version %s: %v", cfg.Cache.Version, err)
	}
	if err := controller.Activate(); err != nil {
		logrus.Fatalf("Activation failed for version %s: %v", cfg.Cache.Version, err)
	}

	if cfg.Server.MetricsPort > 0 {
		go serveMetrics(cfg.Server.MetricsPort)
	}

	server, err := gateway.New(cfg, registry)
	if err != nil {
		logrus.Fatalf("Failed to create gateway server: %v", err)
	}

	if err := server.Start(); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logrus.Infof("Serving metrics on port %d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		logrus.Errorf("Metrics server failed: %v", err)
	}
}
