// Irbits reports what the value analyses can prove about an IR
// module: known bits, sign information, non-zeroness and power-of-two
// facts for integers, base object and constant offset for pointers.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
	"github.com/invisibleboy/my-customized-llvm/version"
)

var (
	jsonFlag    = flag.Bool("json", false, "Format data as JSON")
	versionFlag = flag.Bool("version", false, "Print version and exit")
	dumpFlag    = flag.Bool("dump", false, "Print the module as parsed and exit")
	targetFlag  = flag.String("target", "", "Analyze for a built-in target `arch`")
	configFlag  = flag.String("target-config", "", "Load the target description from a TOML `file`")
	funcFlag    = flag.String("func", "", "Only report values in the function `name`")
	valueFlag   = flag.String("value", "", "Only report the value named `name`")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("irbits: ")
	flag.Parse()

	if *versionFlag {
		version.Print()
		os.Exit(0)
	}

	if flag.NArg() > 1 {
		fmt.Fprintln(flag.CommandLine.Output(), "Need one IR file, or none to read standard input.")
		fmt.Fprintln(flag.CommandLine.Output(), "OPTIONS:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var (
		src []byte
		err error
	)
	if flag.NArg() == 1 {
		src, err = os.ReadFile(flag.Arg(0))
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Fatal(err)
	}

	m, err := ir.Parse(string(src))
	if err != nil {
		log.Fatal(err)
	}

	if *dumpFlag {
		ir.WriteModule(os.Stdout, m)
		return
	}

	td, err := chooseTarget(m)
	if err != nil {
		log.Fatal(err)
	}

	rs := report(m, td, *funcFlag, strings.TrimPrefix(*valueFlag, "%"))

	var f formatter = textFormatter{W: os.Stdout}
	if *jsonFlag {
		f = jsonFormatter{W: os.Stdout}
	}
	f.Format(rs)
}

// chooseTarget resolves the layout to analyze under: an explicit
// config file or preset wins, then the module's own datalayout
// string. Without any of those the analyses run layout-free.
func chooseTarget(m *ir.Module) (*target.Data, error) {
	if *configFlag != "" {
		return target.LoadConfig(*configFlag)
	}
	if *targetFlag != "" {
		td := target.ForArch(*targetFlag)
		if td == nil {
			return nil, fmt.Errorf("unknown target %q, have %s",
				*targetFlag, strings.Join(target.Arches(), ", "))
		}
		return td, nil
	}
	if m.TargetLayout != "" {
		return target.ParseLayout(m.TargetLayout)
	}
	return nil, nil
}
