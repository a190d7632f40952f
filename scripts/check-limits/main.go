// check-limits: reads an IFO registry and prints, for every active IFO pool
// and every wallet given on the command line, how much that wallet may
// still commit. Wallets and pools are queried in parallel.
//
// Run from the module root:
//
//	go run ./scripts/check-limits -ifos ~/.swapflow/ifos.yaml 0xWallet1 0xWallet2
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/swapflow/internal/actions"
	"github.com/Mohsinsiddi/swapflow/internal/chain"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	ifo    string
	pool   string
	wallet string // short form
	max    string
	symbol string
	err    string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	path := flag.String("ifos", "ifos.yaml", "IFO registry file")
	mode := flag.String("mode", "mainnet", "network mode")
	flag.Parse()

	wallets := flag.Args()
	if len(wallets) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-limits [-ifos file] [-mode mainnet|testnet] <wallet>...")
		os.Exit(2)
	}

	reg, err := ifo.LoadRegistry(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	chains := chain.NewRegistry()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, x := range reg.All() {
		if !x.Active {
			continue
		}
		c, err := chains.GetByName(x.Network)
		if err != nil || len(c.RPCs(*mode)) == 0 {
			fmt.Fprintf(os.Stderr, "skipping %s: no RPC for %q\n", x.ID, x.Network)
			continue
		}
		client := chain.NewEVMClient(c.RPCs(*mode)[0]) // first built-in RPC

		for _, pid := range []ifo.PoolID{ifo.PoolBasic, ifo.PoolUnlimited} {
			if !x.HasPool(pid) {
				continue
			}
			for _, wallet := range wallets {
				wg.Add(1)
				go func(x ifo.IFO, pid ifo.PoolID, wallet string) {
					defer wg.Done()
					r := check(client, x, pid, wallet)
					mu.Lock()
					results = append(results, r)
					mu.Unlock()
				}(x, pid, wallet)
			}
		}
	}

	wg.Wait()
	printTable(results)
}

func check(client *chain.EVMClient, x ifo.IFO, pid ifo.PoolID, wallet string) result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	r := result{ifo: x.ID, pool: pid.String(), wallet: shortAddr(wallet), symbol: x.Currency.Symbol, max: "—"}

	pool, err := contract.NewIFOPool(x.Address, client)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	tok, err := contract.NewToken(x.Currency.Address, client)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	snap, usr, err := actions.LoadLimitInputs(ctx, pool, tok, wallet, pid)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	r.max = ifo.FormatAmount(ifo.MaxCommittable(ifo.Inputs(snap, usr)), x.Currency.Decimals)
	if usr.Claimed {
		r.err = "harvested"
	}
	return r
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.ifo != b.ifo {
			return a.ifo < b.ifo
		}
		if a.pool != b.pool {
			return a.pool < b.pool
		}
		return a.wallet < b.wallet
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "IFO\tPOOL\tWALLET\tMAX COMMITTABLE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 9)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.ifo != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t\t\t") // blank separator between IFOs
			}
			last = r.ifo
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ifo, r.pool, r.wallet, r.max, r.symbol, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
