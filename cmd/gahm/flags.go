package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/grid"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15",
	"200601021504",
	"2006010215",
}

// timeValue is a flag.Value accepting RFC 3339 or ATCF style dates, in UTC.
type timeValue struct {
	t   time.Time
	set bool
}

func (v *timeValue) String() string {
	if !v.set {
		return ""
	}
	return v.t.Format(time.RFC3339)
}

func (v *timeValue) Set(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			v.t, v.set = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// gridValue is a flag.Value for "xll,yll,xur,yur,dx,dy" in degrees.
type gridValue struct {
	g   grid.WindGrid
	set bool
}

func (v *gridValue) String() string {
	if !v.set {
		return ""
	}
	return v.g.String()
}

func (v *gridValue) Set(s string) error {
	g, err := parseGrid(s)
	if err != nil {
		return err
	}
	v.g, v.set = g, true
	return nil
}

func parseGrid(s string) (grid.WindGrid, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return grid.WindGrid{}, fmt.Errorf("grid %q: want xll,yll,xur,yur,dx,dy", s)
	}
	var f [6]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return grid.WindGrid{}, fmt.Errorf("grid %q: %w", s, err)
		}
		f[i] = v
	}
	return grid.FromCorners(f[0], f[1], f[2], f[3], f[4], f[5])
}

type domainSpec struct {
	prefix string
	grid   grid.WindGrid
}

// domainsValue is a repeatable flag.Value for "prefix=xll,yll,xur,yur,dx,dy".
type domainsValue []domainSpec

func (v *domainsValue) String() string {
	parts := make([]string, len(*v))
	for i, d := range *v {
		parts[i] = d.prefix
	}
	return strings.Join(parts, ",")
}

func (v *domainsValue) Set(s string) error {
	prefix, spec, ok := strings.Cut(s, "=")
	if !ok || prefix == "" {
		return fmt.Errorf("domain %q: want prefix=xll,yll,xur,yur,dx,dy", s)
	}
	g, err := parseGrid(spec)
	if err != nil {
		return err
	}
	*v = append(*v, domainSpec{prefix: prefix, grid: g})
	return nil
}
