package main

import (
	"context"
	"fmt"

	"github.com/portfolio-chat/portfoliochat"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(portfoliochat.Version)
	return nil
}
