package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/internal/naming"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// writeValue encodes v to w as json or yaml.
func writeValue(w io.Writer, v document.Value, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = v.MarshalJSONIndent("", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = v.MarshalYAMLBytes()
	default:
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatJSON, FormatYAML)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// resolveFlags contains flags for the resolve command
type resolveFlags struct {
	config        *string
	client        string
	clientID      string
	format        string
	includeClient bool
}

func setupResolveFlags() (*flag.FlagSet, *resolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &resolveFlags{config: addConfigFlag(fs)}

	fs.StringVar(&flags.client, "client", "", "tenant slug; applies overrides, access policy and role remapping")
	fs.StringVar(&flags.clientID, "client-id", "", "client id for tenantless queries on layers that carry client context")
	fs.StringVar(&flags.format, "format", FormatYAML, "output format: json or yaml")
	fs.BoolVar(&flags.includeClient, "include-client", false, "wrap the output with the attached client document")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: rac resolve [flags] LAYER/FILE[/SECTION]\n\n")
		_, _ = fmt.Fprintf(output, "Resolve a path with inheritance and $ref pointers applied.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  rac resolve --client uhu USE_CASE/COPYWRITER/prohibitions\n")
		_, _ = fmt.Fprintf(output, "  rac resolve --client-id PRORAIL --format json USE_CASE/COPYWRITER\n")
		_, _ = fmt.Fprintf(output, "  rac resolve CONFIG/defaults\n")
	}
	return fs, flags
}

func handleResolve(args []string, stdout io.Writer) error {
	fs, flags := setupResolveFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one path")
	}

	a, err := newApp(*flags.config, os.Stderr)
	if err != nil {
		return err
	}
	return runResolve(context.Background(), a, flags, fs.Arg(0), stdout)
}

func runResolve(ctx context.Context, a *app, flags *resolveFlags, path string, stdout io.Writer) error {
	q, err := engine.ParsePath(path)
	if err != nil {
		return err
	}
	q.Tenant = naming.Slug(flags.client)
	q.ClientID = strings.TrimSpace(flags.clientID)
	q.IncludeClient = flags.includeClient

	res, err := a.engine.Resolve(ctx, q)
	if err != nil {
		return fmt.Errorf("%s: %w", engine.Code(err), err)
	}
	for _, ref := range res.Report.Unresolved {
		a.logger.Warn().Str("ref", ref).Str("path", q.CanonicalPath()).Msg("unresolved reference left in output")
	}

	out := res.Content
	if res.Client != nil {
		out = document.Map(
			document.F("path", document.String(q.CanonicalPath())),
			document.F("content", res.Content),
			document.F("client", res.Client.Content.With("id", document.String(res.Client.ID))),
		)
	}
	return writeValue(stdout, out, flags.format)
}

// pathsFlags contains flags for the paths command
type pathsFlags struct {
	config *string
	client string
	format string
}

func setupPathsFlags() (*flag.FlagSet, *pathsFlags) {
	fs := flag.NewFlagSet("paths", flag.ContinueOnError)
	flags := &pathsFlags{config: addConfigFlag(fs)}

	fs.StringVar(&flags.client, "client", "", "tenant slug (required)")
	fs.StringVar(&flags.format, "format", FormatText, "output format: text or json")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: rac paths --client SLUG [flags]\n\n")
		_, _ = fmt.Fprintf(output, "List every path a tenant can query with the sections of each file.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handlePaths(args []string, stdout io.Writer) error {
	fs, flags := setupPathsFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.client == "" {
		fs.Usage()
		return fmt.Errorf("paths command requires --client")
	}

	a, err := newApp(*flags.config, os.Stderr)
	if err != nil {
		return err
	}
	return runPaths(context.Background(), a, flags, stdout)
}

func runPaths(ctx context.Context, a *app, flags *pathsFlags, stdout io.Writer) error {
	listing, err := a.engine.ListForTenant(ctx, naming.Slug(flags.client))
	if err != nil {
		return fmt.Errorf("%s: %w", engine.Code(err), err)
	}

	switch flags.format {
	case FormatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	case FormatText:
		for _, p := range listing.AllPaths {
			if sections := listing.Files[p]; len(sections) > 0 {
				_, _ = fmt.Fprintf(stdout, "%s  [%s]\n", p, strings.Join(sections, ", "))
				continue
			}
			_, _ = fmt.Fprintln(stdout, p)
		}
		return nil
	default:
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", flags.format, FormatText, FormatJSON)
	}
}

// rawFlags contains flags for the raw command
type rawFlags struct {
	config  *string
	section string
	format  string
}

func setupRawFlags() (*flag.FlagSet, *rawFlags) {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	flags := &rawFlags{config: addConfigFlag(fs)}

	fs.StringVar(&flags.section, "section", "", "dot path into the file, e.g. format.length")
	fs.StringVar(&flags.format, "format", FormatYAML, "output format: json or yaml")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: rac raw [flags] FILE_ID\n\n")
		_, _ = fmt.Fprintf(output, "Print a file as stored: no inheritance, no $ref resolution, meta kept.\n")
		_, _ = fmt.Fprintf(output, "FILE_ID is a full id or any substring of one.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handleRaw(args []string, stdout io.Writer) error {
	fs, flags := setupRawFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("raw command requires exactly one file id")
	}

	a, err := newApp(*flags.config, os.Stderr)
	if err != nil {
		return err
	}
	return runRaw(context.Background(), a, flags, fs.Arg(0), stdout)
}

func runRaw(ctx context.Context, a *app, flags *rawFlags, fileID string, stdout io.Writer) error {
	raw, err := a.engine.Raw(ctx, fileID, flags.section)
	if err != nil {
		return fmt.Errorf("%s: %w", engine.Code(err), err)
	}
	return writeValue(stdout, raw.Content, flags.format)
}
