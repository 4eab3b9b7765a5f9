package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	bsos "github.com/firecraftgaming/binary-structured-objects"
	"github.com/firecraftgaming/binary-structured-objects/codec"
	"github.com/firecraftgaming/binary-structured-objects/interchange"
	"github.com/firecraftgaming/binary-structured-objects/internal/config"
	"github.com/firecraftgaming/binary-structured-objects/internal/logging"
)

const usage = `Usage: bsos [flags] <command> <schema> [args]

Commands:
  check  <schema>                 parse a schema, list its types and layouts
  encode <schema> <type> [input]  convert a value to BSOS binary
  decode <schema> <type> [input]  convert BSOS binary to a value
  wit    <schema> [type...]       render types as a WIT interface
  stat   <schema> <type> [input]  compare encoded sizes across formats

       bsos -i <schema>           interactive schema browser and decoder

Input is read from stdin when no input file is given.

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	cfg     *config.Config
	log     *zap.Logger
	formats *interchange.Registry
	format  interchange.Codec
	hex     bool
	stdin   io.Reader
	stdout  io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bsos", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Path to a bsos.yaml config file")
		format      = fs.String("format", "", "Interchange format: json, msgpack, cbor, proto")
		strs        = fs.String("strings", "", "String encoding on the wire: utf8 or latin1")
		legacy      = fs.Bool("legacy", false, "Treat zero valued optional fields as absent")
		hexIO       = fs.Bool("hex", false, "Read and write BSOS binary as hex text")
		verbose     = fs.Bool("v", false, "Debug logging")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
	)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *format != "" {
		cfg.Interchange.Format = *format
	}
	if *strs != "" {
		cfg.Codec.Strings = *strs
	}
	if *legacy {
		cfg.Codec.LegacyPresence = true
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log := logging.Setup(cfg.Log)
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	a.hex = *hexIO

	if *interactive {
		if fs.NArg() != 1 {
			fs.Usage()
			return 2
		}
		err = a.interactive(fs.Arg(0))
	} else {
		err = a.dispatch(fs.Args())
	}
	if err == errUsage {
		fs.Usage()
		return 2
	}
	if err != nil {
		log.Debug("command failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(cfg *config.Config, log *zap.Logger, stdin io.Reader, stdout io.Writer) (*app, error) {
	if _, err := codec.ParseStringMode(cfg.Codec.Strings); err != nil {
		return nil, err
	}
	formats, err := interchange.NewRegistry()
	if err != nil {
		return nil, err
	}
	format, err := formats.Get(cfg.Interchange.Format)
	if err != nil {
		return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(formats.Names(), ", "))
	}
	return &app{
		cfg:     cfg,
		log:     log,
		formats: formats,
		format:  format,
		stdin:   stdin,
		stdout:  stdout,
	}, nil
}

func (a *app) dispatch(args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	cmd, schemaPath, rest := args[0], args[1], args[2:]

	switch cmd {
	case "check":
		if len(rest) != 0 {
			return errUsage
		}
		return a.check(schemaPath)
	case "encode", "decode", "stat":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		input := ""
		if len(rest) == 2 {
			input = rest[1]
		}
		switch cmd {
		case "encode":
			return a.encode(schemaPath, rest[0], input)
		case "decode":
			return a.decode(schemaPath, rest[0], input)
		}
		return a.stat(schemaPath, rest[0], input)
	case "wit":
		return a.wit(schemaPath, rest)
	}
	return errUsage
}

// registry builds a registry from the schema file at path.
func (a *app) registry(path string) (*bsos.Registry, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	opts := []bsos.Option{
		bsos.WithLogger(a.log),
		bsos.WithStringMode(a.cfg.StringMode()),
	}
	if a.cfg.Codec.LegacyPresence {
		opts = append(opts, bsos.WithLegacyPresence())
	}
	reg, err := bsos.New(string(text), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}
