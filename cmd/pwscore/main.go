// pwscore 是命令行版的密码强度检查器。
//
//	pwscore [--variant simple|extended] [--common-file path] [--patterns-file path] [--json] [--no-color]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/oy3o/pwscore"
	"github.com/oy3o/pwscore/wordlist"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

type options struct {
	variant      string
	classPolicy  string
	commonFile   string
	patternsFile string
	json         bool
	noColor      bool
	verbose      bool
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := pflag.NewFlagSet("pwscore", pflag.ContinueOnError)
	fs.StringVar(&o.variant, "variant", pwscore.VariantExtended, "scoring variant: simple or extended")
	fs.StringVar(&o.classPolicy, "class-policy", "unicode", "character classification: unicode or ascii")
	fs.StringVar(&o.commonFile, "common-file", "", "common password list, one per line (replaces the built-in list)")
	fs.StringVar(&o.patternsFile, "patterns-file", "", "keyboard pattern list, one per line (replaces the built-in list)")
	fs.BoolVar(&o.json, "json", false, "print one JSON object per evaluated line")
	fs.BoolVar(&o.noColor, "no-color", false, "disable the coloured strength meter")
	fs.BoolVar(&o.verbose, "verbose", false, "debug logging on stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	eval, err := newEvaluator(context.Background(), opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise evaluator")
	}

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	var out io.Writer = os.Stdout
	if tty {
		out = colorable.NewColorableStdout()
	}

	c := &console{
		eval:        eval,
		in:          os.Stdin,
		out:         out,
		color:       tty && !opts.noColor && os.Getenv("NO_COLOR") == "",
		jsonOutput:  opts.json,
		interactive: tty,
	}
	if err := c.run(); err != nil {
		log.Fatal().Err(err).Msg("Read failed")
	}
}

func newEvaluator(ctx context.Context, o *options) (*pwscore.Evaluator, error) {
	v, err := pwscore.VariantByName(o.variant)
	if err != nil {
		return nil, err
	}
	policy, err := pwscore.ParseClassPolicy(o.classPolicy)
	if err != nil {
		return nil, err
	}

	evalOpts := []pwscore.Option{
		pwscore.WithVariant(v),
		pwscore.WithClassPolicy(policy),
		pwscore.WithLogger(&log.Logger),
	}
	if o.commonFile != "" {
		list, err := wordlist.Load(ctx, wordlist.File(o.commonFile))
		if err != nil {
			return nil, fmt.Errorf("common passwords: %w", err)
		}
		evalOpts = append(evalOpts, pwscore.WithCommonPasswords(list))
	}
	if o.patternsFile != "" {
		list, err := wordlist.Load(ctx, wordlist.File(o.patternsFile))
		if err != nil {
			return nil, fmt.Errorf("keyboard patterns: %w", err)
		}
		evalOpts = append(evalOpts, pwscore.WithKeyboardPatterns(list))
	}
	return pwscore.New(evalOpts...)
}
