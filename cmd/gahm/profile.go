package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/gahm"
	"github.com/couchcryptid/storm-gahm/internal/physical"
)

const (
	profileMaxKm  = 500
	profileStepKm = 1
)

var quadrantNames = [atcf.NumQuadrants]string{"NE", "SE", "SW", "NW"}

// runProfile prints the fitted boundary-layer wind speed against distance
// for every isotach and quadrant of one snap.
func runProfile(ctx context.Context, e *env, args []string) error {
	var (
		c      commonFlags
		snap   int
		output string
	)
	fs := e.flagSet("profile")
	c.register(fs)
	fs.IntVar(&snap, "snap", 0, "zero-based snap `index`")
	fs.StringVar(&output, "output", "-", "output `file`")
	if err := e.parse(fs, &c, args); err != nil {
		return err
	}
	track, err := e.loadTrack(ctx, &c)
	if err != nil {
		return err
	}
	if snap < 0 || snap >= track.Len() {
		return fmt.Errorf("snap %d out of range [0, %d)", snap, track.Len())
	}

	w, closeOut, err := e.output(output)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	writeProfile(bw, track.Snap(snap))
	if err := bw.Flush(); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func writeProfile(w *bufio.Writer, s *atcf.Snap) {
	f := physical.Coriolis(s.Position.Y)
	fmt.Fprintf(w, "# %s %s lat=%.2f lon=%.2f\n", s.Date.Format("2006010215"), s.StormName, s.Position.Y, s.Position.X)
	fmt.Fprintln(w, "# isotach_kt quadrant r_km speed_kt")
	for _, iso := range s.Isotachs {
		isoKt := iso.WindSpeed * physical.MSToKnot
		for q, quad := range iso.Quadrants {
			for km := 0; km <= profileMaxKm; km += profileStepKm {
				speed := 0.0
				if km > 0 {
					speed = gahm.WindSpeed(quad.RadiusToMaxWinds, quad.VmaxAtBoundaryLayer, float64(km)*1000, f, quad.HollandB)
				}
				fmt.Fprintf(w, "%.0f %s %d %.3f\n", isoKt, quadrantNames[q], km, speed*physical.MSToKnot)
			}
		}
	}
}
