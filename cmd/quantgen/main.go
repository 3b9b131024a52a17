// Package main provides the quantgen command-line tool: cis-regulatory
// association mapping with OLS summary statistics, ABF Bayesian
// meta-analysis, and phenotype-permutation significance testing.
package main

import (
	"fmt"
	"os"
)

// Exit codes: 0 on success; 1 on a configuration or I/O error, including
// run flags that fail validation; 2 when the command line cannot be
// parsed (no command, an unknown command, or run flags the flag parser
// rejects).
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "run":
		return runAssociate(args[1:])
	case "config":
		return runConfigCmd(args[1:])
	case "version":
		fmt.Printf("quantgen version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `quantgen - cis-regulatory association mapping

Usage:
  quantgen <command> [arguments]

Commands:
  run       Run the association/permutation pipeline
  config    Manage quantgen configuration
  version   Show version information
  help      Show this help message

Examples:
  quantgen run -geno geno.list -pheno pheno.list -fcoord coords.bed \
    -out results/run1 -step 1

  quantgen run -geno geno.list -pheno pheno.list -fcoord coords.bed \
    -out results/run1 -step 5 -bfs subset -pbf subset -grid grid.txt \
    -nperm 10000 -seed 42 -trick 1

For more information on a command, use:
  quantgen <command> -h
`)
}
