package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pevans/newsmap/config"
	"github.com/pevans/newsmap/headlines"
	"github.com/pevans/newsmap/newspapers"
	"github.com/pevans/newsmap/notifications"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func printNewspapersUsage(out io.Writer) {
	fmt.Fprintln(out, "newsmap newspapers - Manage newspapers")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  newsmap newspapers <action> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Actions:")
	fmt.Fprintln(out, "  list       List newspapers")
	fmt.Fprintln(out, "  add        Add a newspaper and notify its country's subscribers")
	fmt.Fprintln(out, "  delete     Delete a newspaper")
	fmt.Fprintln(out, "  discover   Find feed URLs for newspapers without one")
	fmt.Fprintln(out, "  help       Show this help message")
}

func runNewspapers(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		printNewspapersUsage(out)
		return errUsage
	}

	action, rest := args[0], args[1:]
	if action == "help" || action == "--help" || action == "-h" {
		printNewspapersUsage(out)
		return nil
	}

	store, err := newspapers.NewNewspaperStore(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open newspaper store: %w", err)
	}
	defer store.Close()

	switch action {
	case "list":
		return handleNewspapersList(store, rest, out)
	case "add":
		notificationStore, err := notifications.NewNotificationStore(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("failed to open notification store: %w", err)
		}
		defer notificationStore.Close()

		notifier := notifications.NewNotifier(notificationStore, nil, zerolog.Nop())
		return handleNewspapersAdd(store, notifier, rest, out)
	case "delete":
		return handleNewspapersDelete(store, rest, out)
	case "discover":
		return handleNewspapersDiscover(ctx, store, rest, out)
	default:
		fmt.Fprintf(out, "Error: unknown newspapers command: %s\n\n", action)
		printNewspapersUsage(out)
		return errUsage
	}
}

func handleNewspapersList(store *newspapers.NewspaperStore, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("newspapers list", pflag.ContinueOnError)
	fs.SetOutput(out)
	country := fs.String("country", "", "Only list newspapers with this country code")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	filter := newspapers.NewspaperFilter{}
	if *country != "" {
		filter.CountryCode = country
	}

	list, err := store.List(filter)
	if err != nil {
		return fmt.Errorf("failed to list newspapers: %w", err)
	}

	if *asJSON {
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No newspapers registered.")
		return nil
	}

	fmt.Fprintf(out, "%-36s %-7s %-40s %s\n", "ID", "COUNTRY", "TITLE", "URL")
	for _, n := range list {
		fmt.Fprintf(out, "%-36s %-7s %-40s %s\n", n.ID.String(), n.CountryCode, truncate(n.Title, 40), n.URL)
	}
	return nil
}

func handleNewspapersAdd(store *newspapers.NewspaperStore, notifier newspapers.Notifier, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("newspapers add", pflag.ContinueOnError)
	fs.SetOutput(out)
	title := fs.String("title", "", "Newspaper title")
	pageURL := fs.String("url", "", "Newspaper homepage URL")
	country := fs.String("country", "", "Country code")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	for _, name := range []string{"title", "url", "country"} {
		if fs.Lookup(name).Value.String() == "" {
			fmt.Fprintf(out, "Error: --%s is required\n", name)
			fs.PrintDefaults()
			return errUsage
		}
	}

	newspaper, err := store.Create(*title, *pageURL, *country)
	if err != nil {
		return fmt.Errorf("failed to create newspaper: %w", err)
	}

	fmt.Fprintf(out, "Created newspaper: %s\n", newspaper.ID.String())
	fmt.Fprintf(out, "  Title:   %s\n", newspaper.Title)
	fmt.Fprintf(out, "  URL:     %s\n", newspaper.URL)
	fmt.Fprintf(out, "  Country: %s\n", newspaper.CountryCode)

	// The newspaper stays even if subscribers can't be notified
	sent, err := notifier.NotifyNewNewspaper(*newspaper)
	if err != nil {
		fmt.Fprintf(out, "Warning: failed to notify subscribers: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "Notified %d subscribers\n", sent)
	return nil
}

func handleNewspapersDelete(store *newspapers.NewspaperStore, args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: newsmap newspapers delete <newspaper-id>")
		return errUsage
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid newspaper ID: %w", err)
	}

	if err := store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete newspaper: %w", err)
	}

	fmt.Fprintf(out, "Deleted newspaper: %s\n", id.String())
	return nil
}

func handleNewspapersDiscover(ctx context.Context, store *newspapers.NewspaperStore, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("newspapers discover", pflag.ContinueOnError)
	fs.SetOutput(out)
	concurrency := fs.IntP("concurrency", "n", 5, "Maximum homepages fetched at once")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *concurrency < 1 {
		fmt.Fprintln(out, "Error: --concurrency must be at least 1")
		return errUsage
	}

	discoverer := headlines.NewFeedDiscoverer(store, headlines.NewClient(), *concurrency, zerolog.Nop())
	result, err := discoverer.Run(ctx)
	if err != nil {
		return fmt.Errorf("feed discovery failed: %w", err)
	}

	fmt.Fprintf(out, "Checked %d newspapers: %d feeds found, %d without a feed, %d failed\n",
		result.Checked, result.Found, result.NoFeed, result.Failed)
	return nil
}

// truncate cuts s to n runes for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
