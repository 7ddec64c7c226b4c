package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/owi"
	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

func runOWI(ctx context.Context, e *env, args []string) error {
	var (
		c       commonFlags
		start   timeValue
		end     timeValue
		step    time.Duration
		domains domainsValue
	)
	fs := e.flagSet("owi")
	c.register(fs)
	fs.Var(&start, "start", "first record `time` (default: first snap)")
	fs.Var(&end, "end", "last record `time` (default: last snap)")
	fs.DurationVar(&step, "step", time.Hour, "time between records")
	fs.Var(&domains, "domain", "output `prefix=xll,yll,xur,yur,dx,dy`; repeat for nested grids")
	if err := e.parse(fs, &c, args); err != nil {
		return err
	}
	if len(domains) == 0 {
		return errors.New("at least one -domain is required")
	}

	track, err := e.loadTrack(ctx, &c)
	if err != nil {
		return err
	}
	if !start.set {
		start.t = track.Start()
	}
	if !end.set {
		end.t = track.End()
	}

	mw := owi.NewMultiWriter(start.t, end.t, step, e.logger)
	defer mw.Close()
	for _, d := range domains {
		w, err := owi.NewWriter(d.grid, start.t, end.t, step, d.prefix)
		if err != nil {
			return err
		}
		v, err := vortex.New(track, d.grid, vortex.WithWorkers(c.workers), vortex.WithLogger(e.logger))
		if err != nil {
			w.Close()
			return err
		}
		solve := func(ctx context.Context, t time.Time) (owi.Field, error) {
			return v.Solve(ctx, t)
		}
		if err := mw.AddDomain(d.prefix, w, solve); err != nil {
			w.Close()
			return err
		}
	}

	steps, err := mw.Run(ctx)
	if err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	e.logger.Info("owi output written", "storm_id", track.StormID(), "records", steps, "domains", mw.Len())
	fmt.Fprintf(e.stdout, "%s: wrote %d records to %d domains\n", track.StormID(), steps, mw.Len())
	return nil
}
