// Command screenpipe is the thin CLI that drives the résumé-screening
// pipeline as a library: upload, ingest, screen, stream, and usage
// reporting, one subcommand each. The pipeline's own HTTP surface and
// persistence engine are out of scope (SPEC_FULL.md §1); this binary
// exists only to exercise internal/upload, internal/ingest, and
// internal/screen end to end. Subcommand wiring follows the urfave/cli
// idiom used elsewhere in this pack's retrieved repos for the same job.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/lynxscreen/screenpipe/internal/config"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/internal/genservice/openai"
	"github.com/lynxscreen/screenpipe/internal/ingest"
	"github.com/lynxscreen/screenpipe/internal/screen"
	"github.com/lynxscreen/screenpipe/internal/store/memstore"
	"github.com/lynxscreen/screenpipe/internal/upload"
	"github.com/lynxscreen/screenpipe/internal/usage"
	"github.com/lynxscreen/screenpipe/internal/vectorindex/qdrant"
	pkgtext "github.com/lynxscreen/screenpipe/pkg/text"
)

// pipeline bundles the process-wide collaborators every subcommand shares,
// per SPEC_FULL.md §5's "singleton collaborators initialized once at
// startup".
type pipeline struct {
	cfg      *config.Config
	store    *memstore.Store
	uploader *upload.Expander
	ingest   *ingest.Engine
	screen   *screen.Engine
}

func main() {
	app := &cli.App{
		Name:  "screenpipe",
		Usage: "résumé-screening pipeline: upload, ingest, screen, stream, usage",
		Commands: []*cli.Command{
			uploadCommand(),
			ingestCommand(),
			screenCommand(),
			streamCommand(),
			usageCommand(),
			projectsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("screenpipe: command failed", "error", err)
		os.Exit(1)
	}
}

func build() (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st := memstore.New()

	primary, err := openai.New(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	var gen genservice.Service = primary
	if cfg.OpenAIFallbackAPIKey != "" {
		secondary, err := openai.New(cfg.OpenAIFallbackAPIKey)
		if err != nil {
			return nil, err
		}
		gen = genservice.NewComposite(primary, secondary)
	}

	qclient, err := newQdrantClient(cfg.QdrantAddr)
	if err != nil {
		return nil, err
	}
	index, err := qdrant.New(qclient, cfg.EmbeddingModelSize, cfg.VectorDBDistance)
	if err != nil {
		return nil, err
	}

	blobs := upload.NewLocalFS(cfg.UploadRoot)
	uploader := upload.NewExpander(st, blobs, cfg.UploadMaxFiles, cfg.UploadMaxTotalSize.Int64())
	ingestEngine := ingest.New(st, blobs, gen, index, cfg)
	screenEngine := screen.New(st, gen, index, cfg)

	return &pipeline{
		cfg:      cfg,
		store:    st,
		uploader: uploader,
		ingest:   ingestEngine,
		screen:   screenEngine,
	}, nil
}

// Close releases the ingest and screen engines' worker pools. Each
// subcommand builds its own pipeline and closes it before returning.
func (p *pipeline) Close() {
	p.ingest.Close()
	p.screen.Close()
}

func newQdrantClient(addr string) (*qc.Client, error) {
	host, port, err := splitAddr(addr)
	if err != nil {
		return nil, err
	}
	return qc.NewClient(&qc.Config{Host: host, Port: port})
}

func splitAddr(addr string) (host string, port int, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, 6334, nil
	}
	port, err = strconv.Atoi(addr[idx+1:])
	if err != nil {
		return "", 0, errors.New("screenpipe: invalid QDRANT_ADDR port")
	}
	return addr[:idx], port, nil
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "upload one or more résumé files into a project",
		ArgsUsage: "<file> [file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("screenpipe upload: at least one file is required")
			}
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()

			files := make([]upload.InputFile, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				files = append(files, upload.InputFile{Name: filepath.Base(path), Data: f})
			}

			assets, err := p.uploader.Expand(c.Context, c.String("project"), files)
			if err != nil {
				return err
			}
			for _, a := range assets {
				fmt.Println(a.Name)
			}
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "run the ingestion pipeline over a project's assets",
		ArgsUsage: "[asset-name...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Required: true},
			&cli.BoolFlag{Name: "reset", Usage: "delete existing résumés/chunks for the project first"},
		},
		Action: func(c *cli.Context) error {
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()
			result, err := p.ingest.Run(c.Context, ingest.Request{
				ProjectID:  c.String("project"),
				AssetNames: c.Args().Slice(),
				DoReset:    c.Bool("reset"),
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func screenCommand() *cli.Command {
	return &cli.Command{
		Name:  "screen",
		Usage: "screen a project's résumés against its job description",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Required: true},
			&cli.StringSliceFlag{Name: "file", Usage: "restrict to these résumé file ids (repeatable); default is every résumé"},
			&cli.BoolFlag{Name: "smart", Usage: "use the smart (top/bottom split) screening mode"},
			&cli.BoolFlag{Name: "anonymize", Usage: "redact candidate name and contact info in the output"},
			&cli.IntFlag{Name: "min-top-count", Value: 0, Usage: "minimum top-tier size for smart mode; 0 uses the default"},
		},
		Action: func(c *cli.Context) error {
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()
			results, err := p.screen.Screen(c.Context, screen.Request{
				ProjectID:   c.String("project"),
				FileIDs:     c.StringSlice("file"),
				MinTopCount: c.Int("min-top-count"),
				Anonymize:   c.Bool("anonymize"),
				Smart:       c.Bool("smart"),
			})
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
}

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "screen a project's résumés, writing NDJSON results to stdout as each completes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Required: true},
			&cli.StringSliceFlag{Name: "file", Usage: "restrict to these résumé file ids (repeatable); default is every résumé"},
			&cli.BoolFlag{Name: "smart", Usage: "use the smart (top/bottom split) screening mode"},
			&cli.BoolFlag{Name: "anonymize", Usage: "redact candidate name and contact info in the output"},
			&cli.IntFlag{Name: "min-top-count", Value: 0, Usage: "minimum top-tier size for smart mode; 0 uses the default"},
		},
		Action: func(c *cli.Context) error {
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()
			return p.screen.Stream(c.Context, screen.Request{
				ProjectID:   c.String("project"),
				FileIDs:     c.StringSlice("file"),
				MinTopCount: c.Int("min-top-count"),
				Anonymize:   c.Bool("anonymize"),
				Smart:       c.Bool("smart"),
			}, os.Stdout)
		},
	}
}

func usageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "print the aggregated usage report for a project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Required: true},
		},
		Action: func(c *cli.Context) error {
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()
			logs, err := p.store.UsageLogs().ListByProject(c.Context, c.String("project"))
			if err != nil {
				return err
			}
			return printJSON(usage.BuildReport(logs))
		},
	}
}

// projectsCommand lists every project ID the in-memory store has ever
// recorded an entity for (memstore.Store.ProjectIDs), one per line.
func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "list every project ID known to the store",
		Action: func(c *cli.Context) error {
			p, err := build()
			if err != nil {
				return err
			}
			defer p.Close()

			ids := p.store.ProjectIDs()
			out, err := pkgtext.Render("{{range .IDs}}{{.}}\n{{end}}", map[string]any{"IDs": ids})
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
