// Package commitmsg asks an AI tool for commit message candidates for a
// diff. It keeps no state between requests and never touches the
// repository.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/ai"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxDiffBytes = 60000
)

// Candidate is one proposed commit message.
type Candidate struct {
	Text       string
	Convention string
}

// Config holds the pipeline's fixed settings.
type Config struct {
	Timeout      time.Duration
	MaxDiffBytes int
	// Executables overrides the executable of a tool, keyed by tool name.
	Executables map[string]string
}

// Pipeline generates commit message candidates.
type Pipeline struct {
	runner Runner
	cfg    Config
	log    *zap.Logger
}

// New creates a pipeline. Zero config values take the defaults.
func New(runner Runner, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxDiffBytes <= 0 {
		cfg.MaxDiffBytes = DefaultMaxDiffBytes
	}
	return &Pipeline{runner: runner, cfg: cfg, log: log}
}

// Generate returns at most n candidates for diff, produced by the tool named
// command. Every failure is a *GenerationError.
func (p *Pipeline) Generate(ctx context.Context, diff, command string, n int) ([]Candidate, error) {
	if n < 1 {
		n = 1
	}
	if strings.TrimSpace(diff) == "" {
		return nil, &GenerationError{Reason: ReasonEmptyDiff, Tool: command}
	}

	tool, err := ai.Resolve(command)
	if err != nil {
		return nil, &GenerationError{Reason: ReasonUnknownTool, Tool: command, Err: err}
	}
	tpl, err := tool.Template(p.cfg.Executables[tool.String()])
	if err != nil {
		return nil, &GenerationError{Reason: ReasonUnknownTool, Tool: command, Err: err}
	}

	prompt := buildPrompt(truncateDiff(diff, p.cfg.MaxDiffBytes), n)
	argv, stdin := tpl.OneShot(prompt)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := p.runner.Run(ctx, argv, stdin)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.log.Warn("commit message generation timed out", zap.String("tool", tool.String()), zap.Duration("timeout", p.cfg.Timeout))
			return nil, &GenerationError{Reason: ReasonTimeout, Tool: tool.String(), Err: err}
		}
		return nil, &GenerationError{Reason: ReasonToolFailed, Tool: tool.String(), Err: err}
	}

	cands := parseCandidates(string(out), n)
	p.log.Info("commit messages generated",
		zap.String("tool", tool.String()),
		zap.Int("candidates", len(cands)),
		zap.Duration("elapsed", time.Since(start)))
	if len(cands) == 0 {
		return nil, &GenerationError{Reason: ReasonNoCandidates, Tool: tool.String()}
	}
	return cands, nil
}

func buildPrompt(diff string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d alternative commit messages for the git diff below.\n", n)
	b.WriteString("Use the Conventional Commits format: type(optional scope): summary, at most 72 characters.\n")
	b.WriteString("Reply with a numbered list, one message per line, and nothing else.\n\n")
	b.WriteString(diff)
	if !strings.HasSuffix(diff, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

// truncateDiff cuts diff to at most max bytes on a line boundary, or on a
// rune boundary when the first line alone is too long, and appends a marker
// saying how much was dropped.
func truncateDiff(diff string, max int) string {
	if len(diff) <= max {
		return diff
	}
	cut := diff[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	} else {
		for len(cut) > 0 && !utf8.RuneStart(diff[len(cut)]) {
			cut = cut[:len(cut)-1]
		}
	}
	return fmt.Sprintf("%s[diff truncated: %d of %d bytes omitted]\n", cut, len(diff)-len(cut), len(diff))
}
