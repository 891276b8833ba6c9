// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/MotionLens/pkg/logging"
	"github.com/AleutianAI/MotionLens/services/golden"
	"github.com/AleutianAI/MotionLens/services/updater"
)

const defaultListenAddr = ":8750"

// runServe starts the golden review service until interrupted.
func runServe(cmd *cobra.Command, args []string) {
	watch := firstNonEmpty(watchRoot, config.WatchRoot)
	root := firstNonEmpty(goldenRoot, config.GoldenRoot)
	listen := firstNonEmpty(listenAddr, config.Listen, defaultListenAddr)
	if watch == "" || root == "" {
		OutputError("starting updater",
			errors.New("--watch and --golden-root are required (or set watch_root/golden_root in config)"))
		exit(CLIExitError)
	}

	serveLogger := logging.New(logging.Config{
		Level:   logging.ParseLevel(firstNonEmpty(logLevel, config.Log.Level)),
		LogDir:  config.Log.Dir,
		Service: "updater",
	})
	defer serveLogger.Close()

	store := golden.NewStore(root, golden.WithLogger(serveLogger))
	svc := updater.NewService(watch, store,
		updater.WithLogger(serveLogger),
		updater.WithDebounce(debounceDelay))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		OutputError("starting updater", err)
		exit(CLIExitError)
	}
	defer svc.Stop()

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:    listen,
		Handler: svc.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	serveLogger.Info("updater listening", "addr", listen, "watch", watch, "golden_root", root)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		OutputError("serving", err)
		exit(CLIExitError)
	}
}

// firstNonEmpty returns the first non-empty value, letting flags
// override config defaults.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
