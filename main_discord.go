package main

import (
	"golang.org/x/sync/errgroup"

	"ccasino/cogs"
	"ccasino/utils"
)

type DiscordCmd struct{}

func (d *DiscordCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}

	transport, err := cogs.NewDiscord(a.cfg.Discord, a.cfg.Casino.Admins, a.clock, a.logger)
	if err != nil {
		a.shutdown(nil)
		return err
	}
	casino, err := a.newCasino(transport, utils.NewWardrobe())
	if err != nil {
		a.shutdown(nil)
		return err
	}
	defer a.shutdown(casino)

	group, gctx := errgroup.WithContext(ctx)
	if a.cfg.Status.Enabled {
		status := cogs.NewStatusServer(casino, a.cfg.Status.Address, a.logger)
		status.SetState("running")
		group.Go(func() error {
			return status.Run(gctx)
		})
	}
	group.Go(func() error {
		return transport.Run(gctx, casino)
	})

	a.logger.Info("casino is running, press CTRL+C to exit")
	return group.Wait()
}
