package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-tiled-pathtracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	sceneDir := flag.String("scenes", "scenes", "Directory of JSON scene files")
	verbose := flag.Bool("v", false, "Log every tile")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	webServer := server.NewServer(*port, *sceneDir, logger)
	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
