package main

import (
	"fmt"
	"io"

	"github.com/pevans/newsmap/countries"
)

func printCountriesUsage(out io.Writer) {
	fmt.Fprintln(out, "newsmap countries - Inspect the country registry")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  newsmap countries <action> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Actions:")
	fmt.Fprintln(out, "  list                 List registered countries")
	fmt.Fprintln(out, "  match <name> <code>  Check whether a country name matches a code")
	fmt.Fprintln(out, "  suggest <name>       Suggest a code for a country name")
	fmt.Fprintln(out, "  help                 Show this help message")
}

func runCountries(registry *countries.Registry, args []string, out io.Writer) error {
	if len(args) < 1 {
		printCountriesUsage(out)
		return errUsage
	}

	action, rest := args[0], args[1:]
	switch action {
	case "list":
		for _, entry := range registry.Entries() {
			fmt.Fprintf(out, "%-4s %s\n", entry.Code, entry.Name)
		}
		return nil
	case "match":
		if len(rest) != 2 {
			fmt.Fprintln(out, "Usage: newsmap countries match <name> <code>")
			return errUsage
		}
		rule, ok := countries.NewMatcher(registry).Explain(rest[0], rest[1])
		if !ok {
			fmt.Fprintf(out, "%q does not match %q\n", rest[0], rest[1])
			return nil
		}
		fmt.Fprintf(out, "%q matches %q (rule: %s)\n", rest[0], rest[1], rule)
		return nil
	case "suggest":
		if len(rest) != 1 {
			fmt.Fprintln(out, "Usage: newsmap countries suggest <name>")
			return errUsage
		}
		code := registry.SuggestedCode(rest[0])
		if _, ok := registry.CodeForName(rest[0]); ok {
			fmt.Fprintf(out, "%s\n", code)
		} else {
			fmt.Fprintf(out, "%s (not registered)\n", code)
		}
		return nil
	case "help", "--help", "-h":
		printCountriesUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "Error: unknown countries command: %s\n\n", action)
		printCountriesUsage(out)
		return errUsage
	}
}
