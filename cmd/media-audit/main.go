package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/config"
)

const usage = `Media Audit CLI

Reports which stored media files are referenced by posts.

USAGE:
  media-audit <command> [options]

COMMANDS:
  usage     Print the in-use / not-in-use partition of media files
  keys      Print the referenced key lists, one content record per line

ENVIRONMENT VARIABLES:
  DATABASE_URL      "memory" or a PostgreSQL connection string
  DB_SCHEMA         PostgreSQL schema name (default: admin)
  STORAGE_URL       "memory://", "file:///path" or "s3://bucket?region=..."
  MEDIA_PREFIX      Key prefix used by content (default: images/)
  KEY_MAPPING       "reference" or "descriptor" (default: reference)
  KEY_INDEX_FILE    Read referenced keys from a build-time export instead

  Configuration can be loaded from a .env file in the current directory.

OPTIONS:
  --unused          Only print media that is not in use (usage only)
  --json            Output as JSON
`

type options struct {
	json   bool
	unused bool
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	opts := parseOptions(os.Args[2:])

	cfg, err := config.Load(config.WithEnv(), config.WithMetrics(false))
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	// Keep stdout for the report
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx := context.Background()
	services, err := cfg.BuildService(ctx, logger)
	if err != nil {
		fatal("Failed to build service", err)
	}
	defer services.Close()

	switch command {
	case "usage":
		err = handleUsage(ctx, os.Stdout, services.Admin, opts)
	case "keys":
		err = handleKeys(ctx, os.Stdout, services.Admin, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		services.Close()
		fatal("Command failed", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func parseOptions(args []string) options {
	var opts options
	for _, arg := range args {
		switch strings.TrimLeft(arg, "-") {
		case "json":
			opts.json = true
		case "unused":
			opts.unused = true
		}
	}
	return opts
}

func handleUsage(ctx context.Context, w io.Writer, svc simpleadmin.Service, opts options) error {
	partition, err := svc.MediaUsage(ctx)
	if err != nil {
		return err
	}
	if opts.unused {
		partition.InUse = []simpleadmin.MediaDescriptor{}
	}

	if opts.json {
		return writeJSON(w, partition)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "STATUS\tKEY\tSIZE\tTYPE\n")
	for _, d := range partition.InUse {
		fmt.Fprintf(tw, "in-use\t%s\t%s\t%s\n", d.Key, formatSize(d.Size), orDash(d.ContentType))
	}
	for _, d := range partition.NotInUse {
		fmt.Fprintf(tw, "unused\t%s\t%s\t%s\n", d.Key, formatSize(d.Size), orDash(d.ContentType))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d in use, %d not in use\n", len(partition.InUse), len(partition.NotInUse))
	return nil
}

func handleKeys(ctx context.Context, w io.Writer, svc simpleadmin.Service, opts options) error {
	keyIndex, err := svc.KeyIndex(ctx)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(w, keyIndex)
	}
	for _, keys := range keyIndex {
		if len(keys) == 0 {
			fmt.Fprintln(w, "-")
			continue
		}
		fmt.Fprintln(w, strings.Join(keys, " "))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
