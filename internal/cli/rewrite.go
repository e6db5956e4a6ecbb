package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/alnah/go-cleanscript/internal/apierr"
	"github.com/alnah/go-cleanscript/internal/artifact"
	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/format"
	"github.com/alnah/go-cleanscript/internal/interrupt"
	"github.com/alnah/go-cleanscript/internal/lang"
	"github.com/alnah/go-cleanscript/internal/logging"
	"github.com/alnah/go-cleanscript/internal/pipeline"
	"github.com/alnah/go-cleanscript/internal/segment"
	"github.com/alnah/go-cleanscript/internal/template"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// writeTimeout bounds artifact delivery, which runs detached from interrupts.
const writeTimeout = time.Minute

// rewriteFlags holds raw flag values before validation.
type rewriteFlags struct {
	output      string
	force       bool
	provider    string
	model       string
	style       string
	translate   string
	plan        bool
	maxSize     int
	overlap     int
	concurrency int
	maxRetries  int
	initial     time.Duration
	backoff     float64
	maxDelay    time.Duration
	callTimeout time.Duration
	rps         float64
	onFailure   string
	strictRetry bool
	dryRun      bool
	quiet       bool
	verbose     bool
}

// rewriteOptions holds validated options for the rewrite command.
type rewriteOptions struct {
	input       string
	output      string
	force       bool
	provider    Provider
	model       string
	style       template.Name
	outputLang  lang.Language
	plan        bool
	maxSize     int
	overlap     int
	concurrency int
	policy      pipeline.RetryPolicy
	callTimeout time.Duration
	rps         float64
	failure     pipeline.FailurePolicy
	strictRetry bool
	dryRun      bool
	quiet       bool
	verbose     bool
}

// RewriteCmd creates the rewrite command.
// The env parameter provides injectable dependencies for testing.
func RewriteCmd(env *Env) *cobra.Command {
	var f rewriteFlags

	cmd := &cobra.Command{
		Use:   "rewrite [file|-]",
		Short: "Rewrite a long transcript segment by segment",
		Long: `Rewrite a long transcript through a generative text service.

The text is split into segments of at most --max-size words, every segment is
rewritten in parallel with retries, and the results are joined back in order.
A segment that keeps failing is skipped (or marked with --on-failure mark);
the rest of the document is still produced.

Input is read from the file argument, or from stdin when it is "-" or absent.
Output goes to --output: a file path, "-" for stdout, or gs://bucket/object.

Credentials: GEMINI_API_KEY, OPENAI_API_KEY or DEEPSEEK_API_KEY depending
on --provider (default gemini).`,
		Example: `  cleanscript rewrite video.txt
  cleanscript rewrite video.txt -t clean -T en -o clean.txt
  cat video.txt | cleanscript rewrite - -o - -q
  cleanscript rewrite video.txt --plan -p openai -m gpt-4o
  cleanscript rewrite video.txt -o gs://my-bucket/out/final.txt --on-failure mark
  cleanscript rewrite video.txt --max-size 800 --overlap 50 --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}

			cfg, err := env.ConfigLoader.Load()
			if err != nil {
				fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
			}
			applyConfigDefaults(cmd.Flags().Changed, &f, cfg)

			opts, err := parseRewriteOptions(input, f)
			if err != nil {
				return err
			}
			return runRewrite(cmd.Context(), env, cfg, opts)
		},
	}

	defaults := pipeline.DefaultRetryPolicy()
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", `Output file, "-" for stdout or gs://bucket/object (default: `+artifact.DefaultName+`)`)
	fl.BoolVar(&f.force, "force", false, "Overwrite an existing output file")
	fl.StringVarP(&f.provider, "provider", "p", ProviderGemini, "Provider: gemini, openai, deepseek")
	fl.StringVarP(&f.model, "model", "m", "", "Model name (default: provider default)")
	fl.StringVarP(&f.style, "style", "t", template.Default.String(), "Rewrite style: "+strings.Join(template.Names(), ", "))
	fl.StringVarP(&f.translate, "translate", "T", "", "Output language (ISO 639-1 code, e.g. en, fr, pt-BR)")
	fl.BoolVar(&f.plan, "plan", false, "Plan each segment first, then rewrite from the plan (two calls per segment)")
	fl.IntVar(&f.maxSize, "max-size", segment.DefaultMaxSize, "Maximum words per segment")
	fl.IntVar(&f.overlap, "overlap", segment.DefaultOverlap, "Words shared by consecutive segments")
	fl.IntVarP(&f.concurrency, "concurrency", "j", pipeline.DefaultConcurrency, "Segments processed at once")
	fl.IntVar(&f.maxRetries, "max-retries", defaults.MaxRetries, "Retries per segment after the first attempt")
	fl.DurationVar(&f.initial, "initial-delay", defaults.InitialDelay, "Delay before the first retry (0 retries immediately)")
	fl.Float64Var(&f.backoff, "backoff", defaults.BackoffMultiplier, "Delay multiplier between retries (> 1)")
	fl.DurationVar(&f.maxDelay, "max-delay", 0, "Upper bound on the retry delay (0 = none)")
	fl.DurationVar(&f.callTimeout, "call-timeout", pipeline.DefaultAttemptTimeout, "Timeout of a single service call")
	fl.Float64Var(&f.rps, "rps", 0, "Maximum service calls per second across workers (0 = unlimited)")
	fl.StringVar(&f.onFailure, "on-failure", pipeline.FailureSkip.String(), "Failed segments: skip (omit) or mark (visible marker)")
	fl.BoolVar(&f.strictRetry, "strict-retry", false, "Only retry transient failures (rate limit, timeout, empty result)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the segmentation plan without calling the service")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "No progress bar or summary")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Also print log lines to stderr")

	return cmd
}

// applyConfigDefaults fills unset flags from the config file.
func applyConfigDefaults(changed func(string) bool, f *rewriteFlags, cfg config.Config) {
	if !changed("provider") && cfg.Provider != "" {
		f.provider = cfg.Provider
	}
	if !changed("model") && cfg.Model != "" {
		f.model = cfg.Model
	}
	if !changed("concurrency") && cfg.Concurrency > 0 {
		f.concurrency = cfg.Concurrency
	}
	if !changed("max-size") && cfg.MaxSize > 0 {
		f.maxSize = cfg.MaxSize
	}
}

// parseRewriteOptions validates raw flags at the CLI boundary.
func parseRewriteOptions(input string, f rewriteFlags) (rewriteOptions, error) {
	var provider Provider
	if f.provider != "" {
		p, err := ParseProvider(f.provider)
		if err != nil {
			return rewriteOptions{}, err
		}
		provider = p
	}

	style, err := template.ParseName(f.style)
	if err != nil {
		return rewriteOptions{}, err
	}

	outputLang, err := lang.Parse(f.translate)
	if err != nil {
		return rewriteOptions{}, err
	}

	failure, err := pipeline.ParseFailurePolicy(f.onFailure)
	if err != nil {
		return rewriteOptions{}, fmt.Errorf("--on-failure: %v: %w", err, ErrInvalidFlag)
	}

	if err := segment.Validate(f.maxSize, f.overlap); err != nil {
		return rewriteOptions{}, err
	}
	if f.concurrency < 1 {
		return rewriteOptions{}, fmt.Errorf("--concurrency must be at least 1, got %d: %w", f.concurrency, ErrInvalidFlag)
	}
	if f.rps < 0 {
		return rewriteOptions{}, fmt.Errorf("--rps cannot be negative: %w", ErrInvalidFlag)
	}
	if f.callTimeout < 0 {
		return rewriteOptions{}, fmt.Errorf("--call-timeout cannot be negative: %w", ErrInvalidFlag)
	}

	policy := pipeline.RetryPolicy{
		MaxRetries:        f.maxRetries,
		InitialDelay:      f.initial,
		BackoffMultiplier: f.backoff,
		MaxDelay:          f.maxDelay,
	}
	if err := policy.Validate(); err != nil {
		return rewriteOptions{}, err
	}

	return rewriteOptions{
		input:       input,
		output:      f.output,
		force:       f.force,
		provider:    provider.OrDefault(),
		model:       f.model,
		style:       style,
		outputLang:  outputLang,
		plan:        f.plan,
		maxSize:     f.maxSize,
		overlap:     f.overlap,
		concurrency: f.concurrency,
		policy:      policy,
		callTimeout: f.callTimeout,
		rps:         f.rps,
		failure:     failure,
		strictRetry: f.strictRetry,
		dryRun:      f.dryRun,
		quiet:       f.quiet,
		verbose:     f.verbose,
	}, nil
}

// runRewrite executes the rewrite command with validated options.
func runRewrite(ctx context.Context, env *Env, cfg config.Config, opts rewriteOptions) error {
	// === VALIDATION (fail-fast) ===

	text, err := readInput(env, opts.input)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s: %w", inputName(opts.input), ErrEmptyInput)
	}

	if opts.dryRun {
		return printPlan(env.Stdout, text, opts)
	}

	apiKey, err := opts.provider.apiKey(env.Getenv)
	if err != nil {
		return err
	}

	logger, closeLog := openRunLogger(env, cfg, opts.verbose)
	defer closeLog()

	completer, err := env.TransformerFactory.NewCompleter(ctx, opts.provider, apiKey, opts.model)
	if err != nil {
		return err
	}

	po := pipelineOptions(opts, logger)
	var bar *progressBar
	if !opts.quiet {
		bar = newProgressBar(env.Stderr)
		po = append(po, pipeline.WithProgress(bar.Update))
	}

	p, err := pipeline.New(newTransformer(completer, opts), po...)
	if err != nil {
		return err
	}

	// === PROCESS ===

	handler, runCtx := env.Interrupts(ctx)
	defer handler.Stop()

	if !opts.quiet {
		fmt.Fprintf(env.Stderr, "Rewriting %s with %s (style: %s, %s)...\n",
			inputName(opts.input), opts.provider, opts.style, format.Plural(segment.CountTokens(text), "word"))
	}

	res, err := p.Process(runCtx, text)
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		return err
	}

	report := res.Report
	interrupted := report.Cancelled || handler.WasInterrupted()
	if interrupted {
		if handler.WaitForDecision("Ctrl+C again to discard, wait 2s to keep the partial result...") == interrupt.Discard {
			return context.Canceled
		}
		if report.Succeeded() == 0 {
			return fmt.Errorf("run interrupted before any segment completed: %w", context.Canceled)
		}
		fmt.Fprintln(env.Stderr, warnStyle.Render(fmt.Sprintf("Warning: run interrupted, keeping %d of %d segments",
			report.Succeeded(), report.Total)))
	} else if len(report.Outcomes) > 0 && report.Succeeded() == 0 {
		return fmt.Errorf("%w: %w", ErrAllSegmentsFailed, lastError(report))
	}

	// === WRITE OUTPUT ===

	dest := config.ResolveOutputPath(opts.output, cfg.OutputDir, artifact.DefaultName)
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	where, err := env.ArtifactWriter.Write(wctx, dest, res.Text, opts.force)
	if err != nil {
		return err
	}

	if !opts.quiet {
		printSummary(env.Stderr, where, res, opts.failure)
	}
	if interrupted {
		return fmt.Errorf("run interrupted, partial output written to %s: %w", where, context.Canceled)
	}
	return nil
}

// readInput reads the whole input from a file or from stdin ("-").
func readInput(env *Env, input string) (string, error) {
	if input == "-" {
		b, err := io.ReadAll(env.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(input) // #nosec G304 -- user-provided input file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", input, ErrFileNotFound)
		}
		return "", fmt.Errorf("cannot read input: %w", err)
	}
	return string(b), nil
}

func inputName(input string) string {
	if input == "-" {
		return "stdin"
	}
	return input
}

// openRunLogger opens the log file sink. A logging failure never stops the run.
func openRunLogger(env *Env, cfg config.Config, verbose bool) (*slog.Logger, func()) {
	path, err := config.LogPath(cfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: no log file: %v\n", err)
		path = ""
	}

	logger, closer, err := env.LoggerFactory.NewLogger(logging.Options{Path: path, Verbose: verbose, Stderr: env.Stderr})
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: logging disabled: %v\n", err)
		return slog.New(slog.DiscardHandler), func() {}
	}
	return logger, func() { _ = closer.Close() }
}

// newTransformer picks the direct or plan-then-generate adapter.
func newTransformer(c transform.Completer, opts rewriteOptions) transform.Transformer {
	if opts.plan {
		return transform.NewPlanThenGenerate(c, opts.style, opts.outputLang)
	}
	return transform.NewDirect(c, opts.style, opts.outputLang)
}

// pipelineOptions maps validated flags onto pipeline options.
func pipelineOptions(opts rewriteOptions, logger *slog.Logger) []pipeline.Option {
	po := []pipeline.Option{
		pipeline.WithSegmentation(opts.maxSize, opts.overlap),
		pipeline.WithConcurrency(opts.concurrency),
		pipeline.WithRetryPolicy(opts.policy),
		pipeline.WithFailurePolicy(opts.failure),
		pipeline.WithPipelineLogger(logger),
		pipeline.WithCallTimeout(opts.callTimeout),
	}
	if opts.rps > 0 {
		po = append(po, pipeline.WithRateLimit(rate.NewLimiter(rate.Limit(opts.rps), 1)))
	}
	if opts.strictRetry {
		po = append(po, pipeline.WithRetryOn(apierr.IsTransient))
	}
	return po
}

// printPlan writes the segmentation plan of a dry run.
func printPlan(w io.Writer, text string, opts rewriteOptions) error {
	segs, err := segment.Split(text, opts.maxSize, opts.overlap)
	if err != nil {
		return err
	}
	total := segment.CountTokens(text)
	model := opts.model
	if model == "" {
		model = "default"
	}
	calls := len(segs)
	if opts.plan {
		calls *= 2
	}

	fmt.Fprintf(w, "Input: %s\n", format.Plural(total, "word"))
	fmt.Fprintf(w, "Segments: %d (max size %d, overlap %d, bound %d)\n",
		len(segs), opts.maxSize, opts.overlap, segment.MaxSegments(total, opts.maxSize, opts.overlap))
	for _, s := range segs {
		fmt.Fprintf(w, "  #%d  words %d-%d (%d)\n", s.Index, s.Start, s.End, s.Tokens())
	}
	fmt.Fprintf(w, "Provider: %s (model: %s)\n", opts.provider, model)
	fmt.Fprintf(w, "Style: %s, plan first: %t\n", opts.style, opts.plan)
	fmt.Fprintf(w, "Concurrency: %d, service calls: %d to %d\n",
		opts.concurrency, calls, calls*(opts.policy.MaxRetries+1))
	return nil
}

// printSummary reports where the output went and how the run went.
func printSummary(w io.Writer, where string, res pipeline.Result, failure pipeline.FailurePolicy) {
	report := res.Report
	fmt.Fprintf(w, "%s %s (%s, %s)\n", doneStyle.Render("Done:"), where,
		format.Plural(report.Succeeded(), "segment"), format.Size(int64(len(res.Text))))
	if n := report.Failed(); n > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Warning: %s failed (%s); see `cleanscript logs` for details",
			format.Plural(n, "segment"), failure)))
	}
	fmt.Fprintf(w, "Processing time: %s\n", format.Elapsed(res.Elapsed))
}

// lastError returns the error of the highest-index failed outcome.
func lastError(r pipeline.Report) error {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if err := r.Outcomes[i].LastError; err != nil {
			return err
		}
	}
	return apierr.ErrEmptyResult
}
