package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/portfolio-chat/portfoliochat/client"
)

type HealthCommand struct {
	ServerURL string `help:"The URL of the portfolio server." env:"PORTFOLIO_SERVER_URL" default:"http://localhost:3001"`
	Pretty    bool   `help:"Pretty print the JSON output." default:"true"`
}

func (c HealthCommand) Run(ctx context.Context) (err error) {
	resp, err := client.New(c.ServerURL).Health(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	if c.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
