package ratelimit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedLimit is returned when a limit string is not "<N>/<unit>".
var ErrMalformedLimit = errors.New("malformed limit")

// Unit is the window unit of a limit.
type Unit byte

const (
	UnitSecond Unit = 's'
	UnitMinute Unit = 'm'
	UnitHour   Unit = 'h'
	UnitDay    Unit = 'd'
)

// Horizon is how long events are kept. The day window uses the same horizon.
const Horizon = 24 * time.Hour

// Window returns the trailing window length for the unit.
func (u Unit) Window() time.Duration {
	switch u {
	case UnitSecond:
		return time.Second
	case UnitMinute:
		return time.Minute
	case UnitHour:
		return time.Hour
	case UnitDay:
		return Horizon
	default:
		return 0
	}
}

// Limit is a parsed limit string such as "10/m".
type Limit struct {
	Threshold int
	Unit      Unit
	raw       string
}

// String returns the limit exactly as the caller wrote it.
func (l Limit) String() string {
	return l.raw
}

// Canonical returns the limit as "<N>/<unit>" without the caller's
// formatting, so "01/m" and "1/m" compare equal.
func (l Limit) Canonical() string {
	return strconv.Itoa(l.Threshold) + "/" + string(rune(l.Unit))
}

// Window returns the window length of the limit.
func (l Limit) Window() time.Duration {
	return l.Unit.Window()
}

// ParseLimit parses "<N>/<unit>" where N is a positive integer and unit is one
// of s, m, h or d.
func ParseLimit(s string) (Limit, error) {
	count, unit, ok := strings.Cut(s, "/")
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q: missing '/'", ErrMalformedLimit, s)
	}

	threshold, err := strconv.Atoi(count)
	if err != nil {
		return Limit{}, fmt.Errorf("%w: %q: threshold is not a number", ErrMalformedLimit, s)
	}

	if threshold <= 0 {
		return Limit{}, fmt.Errorf("%w: %q: threshold must be positive", ErrMalformedLimit, s)
	}

	if len(unit) != 1 || Unit(unit[0]).Window() == 0 {
		return Limit{}, fmt.Errorf("%w: %q: unknown unit %q", ErrMalformedLimit, s, unit)
	}

	return Limit{Threshold: threshold, Unit: Unit(unit[0]), raw: s}, nil
}

// ParseLimits parses every limit, keeping the caller's order.
func ParseLimits(limits []string) ([]Limit, error) {
	parsed := make([]Limit, 0, len(limits))

	for _, s := range limits {
		l, err := ParseLimit(s)
		if err != nil {
			return nil, err
		}

		parsed = append(parsed, l)
	}

	return parsed, nil
}
