package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/fitroute/internal/domain"
)

// parsePoint parses "lat,lon" into a point stamped with now.
func parsePoint(s string, now time.Time) (domain.RoutePoint, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.RoutePoint{}, fmt.Errorf("point %q: want lat,lon", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || la < -90 || la > 90 {
		return domain.RoutePoint{}, fmt.Errorf("point %q: latitude must be a number in [-90, 90]", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil || lo < -180 || lo > 180 {
		return domain.RoutePoint{}, fmt.Errorf("point %q: longitude must be a number in [-180, 180]", s)
	}
	return domain.RoutePoint{Latitude: la, Longitude: lo, Timestamp: now.UTC()}, nil
}

// flagLocator replays points given on the command line, one per Locate call.
type flagLocator struct {
	points []domain.RoutePoint
	next   int
}

func newFlagLocator(raw []string, now time.Time) (*flagLocator, error) {
	l := &flagLocator{}
	for _, s := range raw {
		pt, err := parsePoint(s, now)
		if err != nil {
			return nil, err
		}
		l.points = append(l.points, pt)
	}
	return l, nil
}

func (l *flagLocator) Locate(context.Context) (domain.RoutePoint, error) {
	if l.next >= len(l.points) {
		return domain.RoutePoint{}, errors.New("no more points")
	}
	pt := l.points[l.next]
	l.next++
	return pt, nil
}

func (l *flagLocator) remaining() int { return len(l.points) - l.next }

// flagPicker hands back the --photo value; an empty value reads as cancelled.
type flagPicker string

func (p flagPicker) Pick(context.Context) (string, bool, error) {
	return string(p), p != "", nil
}
