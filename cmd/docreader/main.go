package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"docreader-backend/internal/reader"
	"docreader-backend/internal/uploader"
)

func main() {
	apiURL := flag.String("api", envOr("DOCREADER_API_URL", "http://localhost:8080"), "Base URL of the docreader API")
	filePath := flag.String("file", "", "Path to the document to upload (pdf, png, jpeg or tiff)")
	session := flag.String("session", os.Getenv("DOCREADER_SESSION"), "Session token")
	noFollow := flag.Bool("no-follow", false, "Exit after the analysis starts instead of following the reader stream")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	file, err := uploader.Inspect(*filePath)
	if err != nil {
		exitErr(err.Error())
	}
	if file.Pages > 0 {
		fmt.Printf("%s: %s, %d page(s)\n", file.Name, file.ContentType, file.Pages)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := uploader.NewClient(*apiURL, *session)
	pipeline := uploader.NewPipeline(client, func(line string) { fmt.Println(line) })

	out, err := pipeline.Run(ctx, file)
	if err != nil {
		exitErr(err.Error())
	}
	fmt.Printf("document %s, job %s\n", out.DocumentID, out.JobID)
	fmt.Printf("reader: %s%s\n", strings.TrimRight(*apiURL, "/"), out.ReaderPath)
	if *noFollow {
		return
	}

	last, err := client.Follow(ctx, out.ReaderPath, func(ev reader.StateEvent) {
		line := string(ev.State)
		if ev.Message != "" {
			line += ": " + ev.Message
		}
		if len(ev.Blocks) > 0 {
			line += fmt.Sprintf(" (%d blocks)", len(ev.Blocks))
		}
		fmt.Println(line)
	})
	if err != nil {
		exitErr(fmt.Sprintf("follow reader: %v", err))
	}
	if !last.State.Terminal() {
		exitErr("reader stream closed before the job finished")
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
