package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

func runField(ctx context.Context, e *env, args []string) error {
	var (
		c      commonFlags
		at     timeValue
		g      gridValue
		kind   string
		output string
	)
	fs := e.flagSet("field")
	c.register(fs)
	fs.Var(&at, "time", "solution `time`, RFC 3339 or YYYYMMDDHH")
	fs.Var(&g, "grid", "`xll,yll,xur,yur,dx,dy` in degrees")
	fs.StringVar(&kind, "type", string(vortex.KindWind), fmt.Sprintf("field to dump, one of %v", vortex.Kinds))
	fs.StringVar(&output, "output", "-", "output `file`")
	if err := e.parse(fs, &c, args); err != nil {
		return err
	}
	k, err := vortex.ParseKind(kind)
	if err != nil {
		return err
	}
	if !at.set {
		return errors.New("time is required when not interactive")
	}
	if !g.set {
		return errors.New("-grid is required")
	}

	track, err := e.loadTrack(ctx, &c)
	if err != nil {
		return err
	}
	v, err := vortex.New(track, g.g, vortex.WithWorkers(c.workers), vortex.WithLogger(e.logger))
	if err != nil {
		return err
	}
	sol, err := v.Solve(ctx, at.t)
	if err != nil {
		return err
	}
	values, err := sol.Scalar(k)
	if err != nil {
		return err
	}
	scale := 1.0
	if k == vortex.KindIsotachWeight {
		scale = 100
	}

	w, closeOut, err := e.output(output)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, p := range sol.Points() {
		fmt.Fprintf(bw, "%.4f %.4f %.6f\n", p.X, p.Y, values[i]*scale)
	}
	if err := bw.Flush(); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
