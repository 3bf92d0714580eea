// File: kinematic.go
// Title: Kinematic Program Engine
// Description: Public entry point of the interpreter core. Compile tokenizes a
//              program once; the resulting Program is immutable and can be run
//              any number of times, also concurrently, against different
//              variable bindings.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial engine

package kinematic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	mdwlog "github.com/msto63/kinematics/foundation/core/log"
	"github.com/msto63/kinematics/foundation/kinematic/interp"
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/symbols"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// Value re-exports the variable value type
type Value = value.Value

// ErrStepLimit is returned by Run when Options.MaxSteps is exceeded
var ErrStepLimit = interp.ErrStepLimit

// Options configures compilation and every run of the compiled program
type Options struct {
	Logger *mdwlog.Logger
	// MaxSteps bounds executed statements per run; 0 means unlimited
	MaxSteps int
}

// Program is a compiled kinematic program
type Program struct {
	lines  []string
	tokens []parser.Token
	hash   string
	opts   Options
	logger *mdwlog.Logger
}

// Compile tokenizes lines. Lexical errors are returned as *parser.LexError.
func Compile(lines []string, opts Options) (*Program, error) {
	logger := opts.Logger
	if logger == nil {
		logger = mdwlog.Discard()
	}
	logger = logger.WithField("component", "kinematic")

	tokens, err := parser.Lex(lines)
	if err != nil {
		logger.Debug("program rejected", mdwlog.Fields{"error": err.Error()})
		return nil, err
	}

	p := &Program{
		lines:  append([]string(nil), lines...),
		tokens: tokens,
		hash:   SourceHash(lines),
		opts:   opts,
		logger: logger,
	}
	logger.Debug("program compiled", mdwlog.Fields{
		"lines":  len(lines),
		"tokens": len(tokens),
		"hash":   p.hash[:12],
	})
	return p, nil
}

// CompileString compiles a program given as one text block
func CompileString(source string, opts Options) (*Program, error) {
	return Compile(SplitLines(source), opts)
}

// SplitLines splits source into lines, accepting LF and CRLF endings
func SplitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.TrimSuffix(source, "\n")
	if source == "" {
		return nil
	}
	return strings.Split(source, "\n")
}

// SourceHash returns the hash Compile would assign to lines, without compiling
func SourceHash(lines []string) string {
	h := sha256.New()
	// every line contributes its separator so statements keep their line
	// numbers, and with them the lines reported in errors
	for _, line := range lines {
		h.Write([]byte(parser.NormalizeLine(line)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Parse runs the program once against vars and returns the resulting binding.
// vars is not modified.
func (p *Program) Parse(vars map[string]Value) (map[string]Value, error) {
	return p.Run(context.Background(), vars)
}

// Run is Parse with cancellation. The result holds every input binding plus
// every address the program assigned.
func (p *Program) Run(ctx context.Context, vars map[string]Value) (map[string]Value, error) {
	table := symbols.NewTable()
	table.LoadFrom(vars)

	in := interp.New(p.tokens, table, interp.Options{MaxSteps: p.opts.MaxSteps, Logger: p.logger})
	timer := p.logger.StartTimer("program run")
	if err := in.Run(ctx); err != nil {
		timer.WithField("steps", in.Steps()).StopWithError(err)
		return nil, err
	}
	timer.WithField("steps", in.Steps()).WithField("variables", table.Len()).Stop()
	return table.Snapshot(), nil
}

// Tokens returns a copy of the compiled token list
func (p *Program) Tokens() []parser.Token {
	return append([]parser.Token(nil), p.tokens...)
}

// Lines returns a copy of the source lines
func (p *Program) Lines() []string {
	return append([]string(nil), p.lines...)
}

// Hash identifies the program by its normalised source. Comments, case and
// surrounding whitespace do not change the hash; line positions do.
func (p *Program) Hash() string {
	return p.hash
}
