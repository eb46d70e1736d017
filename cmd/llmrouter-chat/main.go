package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/config"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/streamclient"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	fs := flag.NewFlagSet("llmrouter-chat", flag.ExitOnError)
	baseURL := fs.String("url", config.GetEnv("LLMROUTER_URL", "http://localhost:8080"), "router base URL")
	model := fs.String("model", config.GetEnv("LLMROUTER_MODEL", models.Default().List()[0].ID), "model id")
	printHTML := fs.Bool("html", false, "print the final sanitized HTML instead of streaming text")
	list := fs.Bool("list", false, "list available models and exit")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "usage: llmrouter-chat [flags] [prompt]\n\nThe prompt is read from stdin when no argument is given.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if *showVersion {
		fmt.Printf("llmrouter-chat version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c := streamclient.New(*baseURL)

	if *list {
		ms, err := c.Models(ctx)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("list models")
		}
		for _, m := range ms {
			fmt.Printf("%-18s %-8s %s\n", m.ID, m.Provider, m.UpstreamName)
		}
		return
	}

	prompt := strings.Join(fs.Args(), " ")
	if prompt == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("read prompt")
		}
		prompt = string(b)
	}

	s := streamclient.NewSession(nil)
	printed := 0
	onUpdate := func(s *streamclient.Session) {
		if *printHTML || !s.Streaming() {
			return
		}
		text := s.Text()
		if len(text) > printed {
			fmt.Print(text[printed:])
			printed = len(text)
		}
	}
	err := c.Generate(ctx, s, *model, prompt, onUpdate)
	if err != nil {
		var apiErr *streamclient.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, "Error:", apiErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "\nError:", err)
		}
		os.Exit(1)
	}
	if *printHTML {
		fmt.Println(s.HTML())
		return
	}
	if text := s.Text(); len(text) > printed {
		fmt.Print(text[printed:])
	}
	fmt.Println()
}
