package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/log"
	"github.com/l3aro/go-sclass/internal/mmdc"
	"github.com/l3aro/go-sclass/internal/scanner"
	"github.com/l3aro/go-sclass/pkg/cache"
	"github.com/l3aro/go-sclass/pkg/collections"
	"github.com/l3aro/go-sclass/pkg/diagram"
	"github.com/l3aro/go-sclass/pkg/filter"
	"github.com/l3aro/go-sclass/pkg/mermaid"
)

func runGenerate(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyGenerateFlags(cmd, cfg); err != nil {
		return err
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	r, err := newRunner(cfg, !noCache, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer r.close()

	if info.IsDir() {
		return r.generateDir(cmd.Context(), input)
	}
	return r.generateFile(cmd.Context(), input)
}

// applyGenerateFlags layers the flags the user set over cfg. Flags the
// command does not define are skipped, so subcommands share it.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		cfg.Output.Format = config.Format(strings.ToLower(v))
	}
	if flags.Changed("theme") {
		v, _ := flags.GetString("theme")
		cfg.Output.Theme = config.Theme(strings.ToLower(v))
	}
	if flags.Changed("exclude-interfaces") {
		cfg.Exclude.Contracts.Interfaces, _ = flags.GetBool("exclude-interfaces")
	}
	if flags.Changed("exclude-libraries") {
		cfg.Exclude.Contracts.Libraries, _ = flags.GetBool("exclude-libraries")
	}
	if flags.Changed("exclude") {
		v, _ := flags.GetStringSlice("exclude")
		cfg.Exclude.Contracts.Contracts = append(cfg.Exclude.Contracts.Contracts, v...)
	}
	if flags.Changed("include") {
		v, _ := flags.GetStringSlice("include")
		cfg.Exclude.Contracts.Exceptions = append(cfg.Exclude.Contracts.Exceptions, v...)
	}
	if flags.Changed("collection") {
		v, _ := flags.GetStringSlice("collection")
		cfg.Exclude.Contracts.Collections = append(cfg.Exclude.Contracts.Collections, v...)
	}
	if flags.Changed("exclude-functions") {
		v, _ := flags.GetStringArray("exclude-functions")
		cfg.Exclude.Functions.RegExps = append(cfg.Exclude.Functions.RegExps, v...)
	}
	if flags.Changed("include-functions") {
		v, _ := flags.GetStringSlice("include-functions")
		cfg.Exclude.Functions.Exceptions = append(cfg.Exclude.Functions.Exceptions, v...)
	}
	if flags.Changed("disable-param-types") {
		cfg.DisableFunctionParamType, _ = flags.GetBool("disable-param-types")
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// runner renders diagrams for one invocation. Its generator and cache are
// safe to share between goroutines.
type runner struct {
	cfg      *config.Config
	policy   *filter.Policy
	gen      *diagram.Generator
	cache    *cache.DiagramCache
	renderer *mmdc.Renderer

	mu     sync.Mutex // guards stdout
	stdout io.Writer
}

func newRunner(cfg *config.Config, useCache bool, stdout io.Writer) (*runner, error) {
	table, err := collections.Load(cfg.CollectionsDir)
	if err != nil {
		return nil, err
	}
	policy, err := filter.NewPolicy(cfg.Exclude, table)
	if err != nil {
		return nil, err
	}
	for _, name := range policy.MissingCollections() {
		logger.Warn("unknown collection ignored", "collection", name)
	}

	gen, err := diagram.New(policy, mermaid.Options{DisableParamTypes: cfg.DisableFunctionParamType})
	if err != nil {
		return nil, err
	}

	r := &runner{
		cfg:      cfg,
		policy:   policy,
		gen:      gen,
		renderer: mmdc.New(cfg.RenderTimeout),
		stdout:   stdout,
	}

	if useCache && cfg.CacheDir != "" {
		c, err := cache.New(cache.Options{MaxEntries: cfg.CacheSize})
		if err != nil {
			return nil, err
		}
		if err := cache.LoadFromFile(c, r.cachePath()); err != nil {
			logger.Warn("ignoring unreadable diagram cache", "path", r.cachePath(), "error", err)
			c.Clear()
		}
		r.cache = c
	}
	return r, nil
}

// cacheKey covers everything a diagram depends on: the source, the
// settings, the collection contents the policy resolved and the renderer
// version.
func (r *runner) cacheKey(src []byte, title string) string {
	return cache.Key(src, title,
		r.cfg.Fingerprint(),
		r.policy.Fingerprint(),
		mermaid.FormatVersion,
		RootCmd.Version,
	)
}

func (r *runner) cachePath() string {
	return filepath.Join(r.cfg.CacheDir, cache.FileName)
}

// close persists the cache. Failures are logged, never returned: the
// diagrams are already written.
func (r *runner) close() {
	if r.cache == nil {
		return
	}
	if err := cache.PersistToFile(r.cache, r.cachePath()); err != nil {
		logger.Warn("failed to save diagram cache", "path", r.cachePath(), "error", err)
		return
	}
	stats := r.cache.Stats()
	logger.Debug("diagram cache saved",
		"path", r.cachePath(),
		"entries", stats.Length,
		"size", humanize.Bytes(uint64(stats.Bytes)),
		"hits", stats.HitCount,
		"misses", stats.MissCount,
		"hit_rate", fmt.Sprintf("%.0f%%", r.cache.HitRate()*100),
	)
}

// diagramFor returns the diagram of one source file, from the cache when
// the same source was rendered with the same settings before.
func (r *runner) diagramFor(path string, src []byte) (string, error) {
	title := mermaid.Title(path)

	var key string
	if r.cache != nil {
		key = r.cacheKey(src, title)
		if e, ok := r.cache.Get(key); ok {
			logger.Debug("diagram served from cache", "file", path)
			return e.Diagram, nil
		}
	}

	res, err := r.gen.GenerateSource(path, src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	for _, w := range res.Warnings {
		logger.Warn(w.String(), "file", path)
	}
	if len(res.Excluded) > 0 {
		logger.Debug("contracts excluded", "file", path, "contracts", strings.Join(res.Excluded, ", "))
	}
	logger.Debug("diagram generated",
		"file", path,
		"source", humanize.Bytes(uint64(len(src))),
		"contracts", len(res.Contracts),
		"edges", len(res.Edges),
	)

	if r.cache != nil {
		r.cache.Set(key, path, res.Diagram)
	}
	return res.Diagram, nil
}

func (r *runner) generateFile(ctx context.Context, input string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	d, err := r.diagramFor(input, src)
	if err != nil {
		return err
	}
	return r.emit(ctx, d, mmdc.OutputPath(input, r.cfg.Output.Path, r.cfg.Output.Format))
}

// generateDir renders every Solidity file below dir. With mmd output and no
// output path the diagrams go to stdout in path order; otherwise the output
// path names a directory mirroring the input tree.
func (r *runner) generateDir(ctx context.Context, dir string) error {
	files, err := scanner.Scan(dir)
	if err != nil {
		return fmt.Errorf("scanning directory: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("no Solidity files found", "dir", dir)
		return nil
	}

	toStdout := r.cfg.Output.Path == "" && r.cfg.Output.Format == config.FormatMermaid
	diagrams := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.cfg.Concurrency))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(f.FullPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", f.Path, err)
			}
			d, err := r.diagramFor(f.Path, src)
			if err != nil {
				return err
			}
			if toStdout {
				diagrams[i] = d
				return nil
			}
			return r.emit(ctx, d, batchOutputPath(r.cfg.Output.Path, f.Path, r.cfg.Output.Format))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if toStdout {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, d := range diagrams {
			if i > 0 {
				fmt.Fprintln(r.stdout)
			}
			fmt.Fprint(r.stdout, d)
		}
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	logger.Info("rendered directory", "dir", dir, "files", len(files), "source", humanize.Bytes(uint64(total)))
	return nil
}

// batchOutputPath places the diagram for rel under outDir, swapping the
// extension for the format.
func batchOutputPath(outDir, rel string, format config.Format) string {
	if outDir == "" {
		outDir = "."
	}
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + string(format)
	return filepath.Join(outDir, filepath.FromSlash(name))
}

// emit writes a diagram to outPath, or stdout when it is empty.
func (r *runner) emit(ctx context.Context, d, outPath string) error {
	if outPath == "" {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, err := fmt.Fprint(r.stdout, d)
		return err
	}

	switch r.cfg.Output.Format {
	case config.FormatMermaid:
		if err := mmdc.WriteFile(outPath, d); err != nil {
			return err
		}
	case config.FormatMarkdown:
		if err := mmdc.WriteFile(outPath, mmdc.Markdown(d)); err != nil {
			return err
		}
	default:
		spinner := log.NewProgressSpinner(fmt.Sprintf("Rendering %s...", outPath))
		spinner.Start()
		err := r.renderer.Render(ctx, d, outPath, r.cfg.Output.Theme)
		spinner.Stop()
		if err != nil {
			return err
		}
	}

	logger.Info("diagram written", "path", outPath, "format", string(r.cfg.Output.Format))
	return nil
}
