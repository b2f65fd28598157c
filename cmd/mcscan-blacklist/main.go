// Command mcscan-blacklist validates a blacklist file and reports its
// entries, optionally rewriting ranges as the CIDR blocks
// blacklist.RangeToCIDRs decomposes them into.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kybe236/mc-scanner/pkg/blacklist"
)

var opt struct {
	Compact bool
	Help    bool
}

func init() {
	pflag.BoolVar(&opt.Compact, "compact", false, "Print ranges as their CIDR decomposition instead of A.B.C.D-E.F.G.H")
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()

	if pflag.NArg() != 1 || opt.Help {
		fmt.Printf("usage: %s [options] blacklist-file\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(2)
		}
		os.Exit(0)
	}

	bl, err := blacklist.Load(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	var singles, cidrs, ranges int
	for _, e := range bl.Entries() {
		switch e.Kind {
		case blacklist.KindSingle:
			singles++
			fmt.Println(e.Prefix.Addr())
		case blacklist.KindCIDR:
			cidrs++
			fmt.Println(e.Prefix)
		case blacklist.KindRange:
			ranges++
			if opt.Compact {
				for _, p := range blacklist.RangeToCIDRs(e.Lo, e.Hi) {
					fmt.Println(p)
				}
			} else {
				fmt.Printf("%s-%s\n", e.Lo, e.Hi)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "%d single, %d cidr, %d range entries\n", singles, cidrs, ranges)
}
