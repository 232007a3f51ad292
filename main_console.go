package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"ccasino/cogs"
	"ccasino/utils"
)

type ConsoleCmd struct{}

func (c *ConsoleCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}

	transport := cogs.NewConsole(os.Stdin, os.Stdout, a.cfg.Casino.Admins, a.logger)
	casino, err := a.newCasino(transport, utils.NewWardrobe())
	if err != nil {
		a.shutdown(nil)
		return err
	}
	defer a.shutdown(casino)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	if a.cfg.Status.Enabled {
		status := cogs.NewStatusServer(casino, a.cfg.Status.Address, a.logger)
		status.SetState("console")
		group.Go(func() error {
			return status.Run(gctx)
		})
	}
	group.Go(func() error {
		defer cancel()
		return transport.Run(gctx, casino)
	})
	return group.Wait()
}
