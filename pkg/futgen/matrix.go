package futgen

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Pair is one gateway/leaf model combination.
type Pair struct {
	DUT string
	REF string
}

// String returns "<dut>/<ref>".
func (p Pair) String() string {
	return p.DUT + "/" + p.REF
}

// ParsePair parses "<dut>/<ref>" or a bare "<dut>".
func ParsePair(s string) (Pair, error) {
	dut, ref, _ := strings.Cut(s, "/")
	if dut == "" {
		return Pair{}, fmt.Errorf("invalid device pair %q", s)
	}
	return Pair{DUT: dut, REF: ref}, nil
}

// Matrix holds the results of several pairs keyed by pair.
type Matrix map[Pair]TestConfigMap

// ByLabel re-keys the matrix by pair label for encoding.
func (m Matrix) ByLabel() map[string]TestConfigMap {
	out := make(map[string]TestConfigMap, len(m))
	for p, c := range m {
		out[p.String()] = c
	}
	return out
}

// GenerateMatrix generates every pair with the shared settings of base.
// DUT and REF of base are ignored. Pairs run concurrently, at most limit at
// a time (unlimited if limit <= 0). The regulatory table is loaded once and
// all pairs share the run ID. The first failing pair cancels the rest.
func GenerateMatrix(ctx context.Context, base Options, pairs []Pair, limit int) (Matrix, error) {
	base.DUT = "-"
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if base.Regulatory == nil {
		table, err := regulatory.Load(base.regulatoryPath())
		if err != nil {
			return nil, err
		}
		base.Regulatory = table
	}

	var (
		mu  sync.Mutex
		out = make(Matrix, len(pairs))
	)
	wg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		wg.SetLimit(limit)
	}
	for _, pair := range pairs {
		pair := pair
		wg.Go(func() error {
			opts := base
			opts.DUT, opts.REF = pair.DUT, pair.REF
			gen, err := New(ctx, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", pair, err)
			}
			configs, err := gen.TestConfigs(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", pair, err)
			}

			mu.Lock()
			out[pair] = configs
			mu.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
