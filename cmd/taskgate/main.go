package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"taskgate/internal/app"
	"taskgate/internal/infrastructure"
)

// Embedded page files
//
//go:embed web/*
var webFiles embed.FS

func main() {
	pages, err := fs.Sub(webFiles, "web")
	if err != nil {
		slog.Warn("Page embedding failed", slog.String("error", err.Error()))
		pages = nil
	}

	application, err := app.NewApplication(pages)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
