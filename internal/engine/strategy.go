package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy is a way of distributing a filter pass over workers
type Strategy int

const (
	// Sequential filters the whole image in one pass on the calling goroutine
	Sequential Strategy = iota
	// Grid submits fixed-size blocks to a fixed worker queue
	Grid
	// Recursive quarters the image on a work-stealing fork/join pool
	Recursive
)

// Errors
var (
	ErrInvalidStrategy = errors.New("invalid strategy")
)

var strategyNames = map[Strategy]string{
	Sequential: "sequential",
	Grid:       "grid",
	Recursive:  "recursive",
}

// Strategies returns the parallel strategies, the ones a benchmark compares against Sequential
func Strategies() []Strategy {
	return []Strategy{Grid, Recursive}
}

// ParseStrategy returns the strategy for a name.
// "forkjoin" and "executor" are accepted as aliases for recursive and grid.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential":
		return Sequential, nil
	case "grid", "executor":
		return Grid, nil
	case "recursive", "forkjoin":
		return Recursive, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}

// ParseStrategies parses a comma separated list of strategies
func ParseStrategies(names string) ([]Strategy, error) {
	var strategies []Strategy
	for _, name := range strings.Split(names, ",") {
		strategy, err := ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}

	return strategies, nil
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Strategy(%d)", int(s))
}
