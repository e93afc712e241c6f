// Command nsmap derives, applies and stores namespace maps.
//
//	nsmap generate http://example.com/a http://other.com/b > ns.json
//	nsmap apply --map ns.json http://example.com/a
//	nsmap save --store ./snapshots --map ns.json
//	nsmap load --store s3://bucket/prefix/ <name>
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/jrhy/statecore/nsmap"
	"github.com/jrhy/statecore/persist"
	"github.com/jrhy/statecore/persist/file"
	"github.com/jrhy/statecore/persist/s3"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	log     *slog.Logger

	// s3Client builds the client for s3:// stores.
	s3Client func() (s3.S3Interface, error)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdin, stdout, stderr).rootCmd()
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, s3Client: defaultS3Client}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nsmap",
		Short:        "Derive, apply and store URI namespace maps",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	root.AddCommand(
		a.generateCmd(),
		a.rewriteCmd("apply", "Abbreviate URIs as alias:rest", (*nsmap.Map).Apply),
		a.rewriteCmd("expand", "Expand alias:rest back to URIs", (*nsmap.Map).Expand),
		a.saveCmd(),
		a.loadCmd(),
	)
	return root
}

func (a *app) generateCmd() *cobra.Command {
	var (
		configPath   string
		specialsPath string
		separators   string
		maxLength    int
	)
	cmd := &cobra.Command{
		Use:   "generate [uri...]",
		Short: "Derive a namespace map from URIs (arguments, or one per line on stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &nsmap.GenerateOptions{}
			if configPath != "" {
				b, err := os.ReadFile(configPath)
				if err != nil {
					return fmt.Errorf("read config: %w", err)
				}
				if opts, err = nsmap.ParseGenerateOptions(b); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("separators") {
				opts.Separators = separators
			}
			if cmd.Flags().Changed("max-alias-length") {
				opts.MaxAliasLength = maxLength
			}
			if specialsPath != "" {
				specials, err := readMap(specialsPath)
				if err != nil {
					return fmt.Errorf("specials: %w", err)
				}
				opts.Specials = specials
			}
			uris, err := a.inputs(args)
			if err != nil {
				return err
			}
			ns := nsmap.Generate(uris, opts)
			a.log.Debug("generated namespace map", "uris", len(uris), "namespaces", ns.Len())
			return a.writeMap(ns)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML generation options")
	cmd.Flags().StringVar(&specialsPath, "specials", "", "namespace map JSON of preferred aliases")
	cmd.Flags().StringVar(&separators, "separators", nsmap.DefaultSeparators, "characters a prefix may end with")
	cmd.Flags().IntVar(&maxLength, "max-alias-length", nsmap.DefaultMaxAliasLength, "truncate derived aliases to this length")
	return cmd
}

func (a *app) rewriteCmd(use, short string, rewrite func(*nsmap.Map, string) string) *cobra.Command {
	var mapPath string
	cmd := &cobra.Command{
		Use:   use + " [input...]",
		Short: short + " (arguments, or one per line on stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := readMap(mapPath)
			if err != nil {
				return err
			}
			inputs, err := a.inputs(args)
			if err != nil {
				return err
			}
			for _, in := range inputs {
				fmt.Fprintln(a.stdout, rewrite(ns, in))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mapPath, "map", "", "namespace map JSON")
	_ = cmd.MarkFlagRequired("map")
	return cmd
}

func (a *app) saveCmd() *cobra.Command {
	var store, mapPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a namespace map snapshot and print its name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ns *nsmap.Map
			var err error
			if mapPath != "" {
				ns, err = readMap(mapPath)
			} else {
				ns, err = decodeMap(a.stdin)
			}
			if err != nil {
				return err
			}
			snaps, err := a.snapshots(store)
			if err != nil {
				return err
			}
			name, err := snaps.Save(cmd.Context(), ns)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "directory or s3://bucket/prefix")
	cmd.Flags().StringVar(&mapPath, "map", "", "namespace map JSON (default stdin)")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func (a *app) loadCmd() *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "load name",
		Short: "Print a stored namespace map snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := a.snapshots(store)
			if err != nil {
				return err
			}
			ns, err := snaps.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeMap(ns)
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "directory or s3://bucket/prefix")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func (a *app) snapshots(store string) (*persist.Snapshots, error) {
	var p persist.Persist
	if rest, ok := strings.CutPrefix(store, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("store %q: missing bucket", store)
		}
		client, err := a.s3Client()
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		p = s3.NewPersist(client, bucket, prefix)
	} else {
		if st, err := os.Stat(store); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		} else if !st.IsDir() {
			return nil, fmt.Errorf("store %q is not a directory", store)
		}
		p = file.NewPersistForPath(store)
	}
	a.log.Debug("using snapshot store", "store", store)
	return persist.NewSnapshots(persist.Config{StoreWith: p, Logger: a.log})
}

func defaultS3Client() (s3.S3Interface, error) {
	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		return nil, err
	}
	return awss3.New(sess), nil
}

// inputs returns args, or the non-empty lines of stdin if there are none.
func (a *app) inputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var lines []string
	sc := bufio.NewScanner(a.stdin)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

func (a *app) writeMap(ns *nsmap.Map) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ns)
}

func readMap(path string) (*nsmap.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ns, err := decodeMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ns, nil
}

func decodeMap(r io.Reader) (*nsmap.Map, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return nsmap.Decode(b)
}
