package main

import (
	"context"
	"errors"
)

func runTrack(ctx context.Context, e *env, args []string) error {
	var (
		c      commonFlags
		output string
	)
	fs := e.flagSet("track")
	c.register(fs)
	fs.StringVar(&output, "output", "-", "output `file`")
	if err := e.parse(fs, &c, args); err != nil {
		return err
	}
	track, err := e.loadTrack(ctx, &c)
	if err != nil {
		return err
	}
	w, closeOut, err := e.output(output)
	if err != nil {
		return err
	}
	return errors.Join(track.Write(w), closeOut())
}
