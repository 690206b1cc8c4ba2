// Command ecgpdf composes specification documents offline.
//
//	ecgpdf [flags] record.json     compose a record read from a JSON file ("-" reads stdin)
//	ecgpdf [flags] -profile        compose the company profile
//
// Documents are written into -o DIR under their standard filename, or to stdout with -o -.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/storages"
	"github.com/ecogroup/ecgsite/storages/localfs"
)

var errTerminal = errors.New("refusing to write a PDF to a terminal; redirect stdout or use -o DIR")

type config struct {
	out        string
	paper      string
	profile    bool
	uploadsDir string
	opts       pdfs.Options
	input      string
}

func parseFlags(args []string, errOut io.Writer) (*config, error) {
	cfg := &config{opts: pdfs.DefaultOptions()}
	fs := flag.NewFlagSet("ecgpdf", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.out, "o", ".", `output directory, or "-" for stdout`)
	fs.StringVar(&cfg.paper, "paper", "A4", "paper size: A4 or Letter")
	fs.BoolVar(&cfg.profile, "profile", false, "compose the company profile instead of a record")
	fs.StringVar(&cfg.uploadsDir, "uploads", "", "uploads root for record images stored by the site")
	fs.BoolVar(&cfg.opts.IncludeTechnicalSpecs, "specs", cfg.opts.IncludeTechnicalSpecs, "include the specification table")
	fs.BoolVar(&cfg.opts.IncludeConstructionProcess, "process", cfg.opts.IncludeConstructionProcess, "include the construction process")
	fs.BoolVar(&cfg.opts.IncludePartners, "partners", cfg.opts.IncludePartners, "include the partners section")
	fs.BoolVar(&cfg.opts.IncludeImages, "images", cfg.opts.IncludeImages, "embed the record image")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch {
	case cfg.profile && fs.NArg() != 0:
		return nil, errors.New("-profile takes no record file")
	case !cfg.profile && fs.NArg() != 1:
		return nil, errors.New("exactly one record file is required")
	}
	cfg.input = fs.Arg(0)
	return cfg, nil
}

func (cfg *config) generator() (pdfs.Generator, error) {
	g := pdfs.Generator{}
	switch strings.ToLower(cfg.paper) {
	case "a4":
		g.Paper = pdfs.A4Size
	case "letter":
		g.Paper = pdfs.LetterSize
	default:
		return g, fmt.Errorf("unsupported paper size: %q", cfg.paper)
	}
	resolver := &storages.ImageResolver{
		Bucket: storages.BucketAttachments,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.uploadsDir != "" {
		store, err := localfs.New(cfg.uploadsDir, "/uploads")
		if err != nil {
			return g, err
		}
		resolver.Store = store
	}
	g.Images = resolver
	return g, nil
}

func readRecord(path string, stdin io.Reader) (pdfs.ContentRecord, error) {
	var rec pdfs.ContentRecord
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return rec, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rec); err != nil {
		return rec, fmt.Errorf("reading record: %w", err)
	}
	if rec.Name == "" {
		return rec, errors.New("record has no name")
	}
	rec.Description = catalog.PlainText(rec.Description)
	return rec, nil
}

// run composes one document; stdoutIsTerminal guards binary output
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, stdoutIsTerminal bool) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if cfg.out == "-" && stdoutIsTerminal {
		return errTerminal
	}
	g, err := cfg.generator()
	if err != nil {
		return err
	}

	var saver pdfs.Saver
	var buf *pdfs.BufferSaver
	if cfg.out == "-" {
		buf = &pdfs.BufferSaver{}
		saver = buf
	} else {
		saver = pdfs.DirSaver{Dir: cfg.out}
	}

	var (
		layout   pdfs.Layout
		filename string
	)
	if cfg.profile {
		filename = pdfs.CompanyProfileFilename
		layout, err = g.ComposeCompanyProfileDocument(ctx, saver)
	} else {
		var rec pdfs.ContentRecord
		if rec, err = readRecord(cfg.input, stdin); err != nil {
			return err
		}
		filename = pdfs.RecordFilename(rec.Name)
		layout, err = g.ComposeRecordDocument(ctx, rec, cfg.opts, saver)
	}
	if err != nil {
		return err
	}

	if buf != nil {
		_, err = stdout.Write(buf.Data)
		return err
	}
	_, err = fmt.Fprintf(stderr, "%s: %d pages, sections %s\n",
		pdfs.DirSaver{Dir: cfg.out}.Path(filename), layout.Pages, strings.Join(layout.SectionNames(), ", "))
	return err
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isTerm := term.IsTerminal(int(os.Stdout.Fd()))
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, isTerm)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Printf("[ERROR] %v", err)
		stop()
		os.Exit(1)
	}
}
