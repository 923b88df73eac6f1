package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/portfolio-chat/portfoliochat/client"
	"github.com/portfolio-chat/portfoliochat/models"
)

type AskCommand struct {
	ServerURL string `help:"The URL of the portfolio server." env:"PORTFOLIO_SERVER_URL" default:"http://localhost:3001"`
	Message   string `arg:"" help:"The question to ask."`
	LogLevel  string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c AskCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	resp, err := client.New(c.ServerURL).Chat(ctx, models.ChatPostRequest{
		Message: c.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to ask: %w", err)
	}
	log.Debug("received reply", slog.String("timestamp", resp.Timestamp))
	fmt.Println(resp.Response)
	return nil
}
