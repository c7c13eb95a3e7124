// cmd/mjvmc is the compiler driver: reads one source file, runs it
// through the pipeline up to the requested stage, and writes Jasmin
// assembly text (spec §6). Grounded on the teacher's cmd/sentra/main.go
// for the "one function per stage, errors printed, non-zero exit"
// shape, rebuilt on nspcc-dev-neo-go's cli/app.New() pattern
// (github.com/urfave/cli) instead of the teacher's hand-rolled argv
// switch.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cerrors "mjvmc/internal/errors"
	"mjvmc/internal/emitter"
	"mjvmc/internal/ir"
	"mjvmc/internal/lexer"
	"mjvmc/internal/parser"
	"mjvmc/internal/typecheck"
)

var version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "mjvmc"
	app.Usage = "compiles the course C subset to JVM Jasmin assembly"
	app.Version = version
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "stage",
			Value: "emit",
			Usage: "pipeline stage to run through: lex, parse, check, emit",
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "output .j file path (defaults to the input's base name without extension, plus .j, in the current directory)",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log each pipeline stage",
		},
	}
	app.Action = runCompile

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	if isatty.IsTerminal(os.Stderr.Fd()) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func runCompile(c *cli.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return cli.NewExitError("usage: mjvmc [--stage=lex|parse|check|emit] [-o out.j] <source.c>", 2)
	}
	input := args[0]
	stage := c.String("stage")
	verbose := c.Bool("verbose")

	runID := uuid.NewString()
	log := newLogger(verbose).With(zap.String("run_id", runID), zap.String("file", input))
	defer log.Sync()

	start := time.Now()

	src, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrapf(err, "reading %s", input)
	}

	log.Info("lexing")
	sc := lexer.NewScanner(string(src))
	tokens := sc.ScanTokens()
	if errs := sc.Errors(); len(errs) > 0 {
		return reportAndFail(log, errs)
	}
	if stage == "lex" {
		fmt.Printf("%d tokens\n", len(tokens))
		return nil
	}

	log.Info("parsing")
	p := parser.NewParser(tokens, input)
	prog := p.Parse()
	if len(p.Errors) > 0 {
		return reportAndFail(log, p.Errors)
	}
	if stage == "parse" {
		fmt.Printf("parsed %d top-level declarations\n", len(prog.Decls))
		return nil
	}

	log.Info("type checking")
	checker := typecheck.NewChecker(input)
	diags := checker.Check(prog)
	if diags.HasErrors() {
		return reportAndFailCompile(log, diags.Errors())
	}
	if stage == "check" {
		fmt.Println("no type errors")
		return nil
	}

	log.Info("lowering to IR")
	gen := ir.New()
	mod := gen.Generate(prog, checker.HasMain())

	outPath := c.String("output")
	if outPath == "" {
		base := filepath.Base(input)
		outPath = strings.TrimSuffix(base, filepath.Ext(base)) + ".j"
	}
	className := emitter.ClassNameFromPath(outPath)

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer out.Close()

	log.Info("emitting jasmin", zap.String("class", className), zap.String("output", outPath))
	em := emitter.New(log)
	if err := em.Emit(mod, className, out); err != nil {
		return errors.Wrap(err, "emitting jasmin assembly")
	}

	elapsed := time.Since(start)
	summary := fmt.Sprintf("compiled %s -> %s (%d functions, %d globals) in %s",
		input, outPath, len(mod.Functions), len(mod.Globals), elapsed.Round(time.Microsecond))
	if isatty.IsTerminal(os.Stdout.Fd()) {
		summary = "\033[32m" + summary + "\033[0m"
	}
	fmt.Println(summary)
	if stat, err := out.Stat(); err == nil {
		fmt.Printf("wrote %s\n", humanize.Bytes(uint64(stat.Size())))
	}
	return nil
}

func reportAndFail(log *zap.Logger, errs []error) error {
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
	log.Error("compilation failed", zap.Int("error_count", len(errs)))
	return cli.NewExitError("", 1)
}

func reportAndFailCompile(log *zap.Logger, errs []*cerrors.CompileError) error {
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	log.Error("compilation failed", zap.Int("error_count", len(errs)))
	return cli.NewExitError("", 1)
}
