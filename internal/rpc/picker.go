// Package rpc chooses which JSON-RPC endpoint a workflow talks to.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoHealthyRPC is returned when no endpoint answered in time.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
	// Concurrent probes per selection.
	probeLimit = 4
)

// ParseAlgorithm maps a config value onto an Algorithm. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, nil
	case AlgorithmFailover:
		return AlgorithmFailover, nil
	}
	return "", fmt.Errorf("unknown rpc algorithm %q", s)
}

// Pinger measures one endpoint.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, uint64, error)
}

// DialFunc builds a Pinger for url.
type DialFunc func(url string) Pinger

// Endpoint is the measured state of one RPC URL.
type Endpoint struct {
	URL     string
	Latency time.Duration
	Block   uint64
	Err     error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Probe pings every url concurrently, each bounded by timeout. Results keep
// the order of urls.
func Probe(ctx context.Context, urls []string, dial DialFunc, timeout time.Duration) []Endpoint {
	out := make([]Endpoint, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)
	for i, u := range urls {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			latency, block, err := dial(u).Ping(pctx)
			out[i] = Endpoint{URL: u, Latency: latency, Block: block, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Pick chooses an endpoint from probe results. Unhealthy endpoints and
// endpoints lagging the best block are skipped.
func Pick(eps []Endpoint, algo Algorithm) (string, error) {
	var best uint64
	for _, e := range eps {
		if e.Healthy() && e.Block > best {
			best = e.Block
		}
	}

	var winner *Endpoint
	for i := range eps {
		e := &eps[i]
		if !e.Healthy() || best-e.Block > staleBlockThreshold {
			continue
		}
		if algo == AlgorithmFailover {
			return e.URL, nil
		}
		if winner == nil || e.Latency < winner.Latency {
			winner = e
		}
	}
	if winner == nil {
		return "", ErrNoHealthyRPC
	}
	return winner.URL, nil
}

// Select probes urls and returns the chosen one. A single url is returned
// without probing.
func Select(ctx context.Context, urls []string, algo Algorithm, dial DialFunc, timeout time.Duration) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	return Pick(Probe(ctx, urls, dial, timeout), algo)
}
