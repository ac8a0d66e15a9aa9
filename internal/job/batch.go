package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

// Result is one document written by a batch
type Result struct {
	Record int
	Path   string
}

// Runner merges every record of a job into its own output file
type Runner struct {
	Config *mailmerge.Config
	Logger *zap.Logger
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(config *mailmerge.Config, logger *zap.Logger) *Runner {
	if config == nil {
		config = mailmerge.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Config: config, Logger: logger}
}

// Run reads the template once and merges each record concurrently, bounded
// by the job's worker count (GOMAXPROCS when zero). A failing record does
// not stop the others; all failures are returned together as a
// *mailmerge.MultiError. Results are in record order.
func (r *Runner) Run(ctx context.Context, j *Job) ([]Result, error) {
	if err := j.ValidateBatch(); err != nil {
		return nil, err
	}

	templatePath := j.Resolve(j.Template)
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, mailmerge.NewDocumentError("read", templatePath, err)
	}

	outDir := j.Resolve(j.OutputDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := outputNames(j.Records, j.NameField)

	workers := j.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		errs    = mailmerge.NewMultiError()
		written = make([]bool, len(j.Records))
	)
	addError := func(i int, err error) {
		mu.Lock()
		errs.Add(fmt.Errorf("record %d: %w", i, err))
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, record := range j.Records {
		if err := egCtx.Err(); err != nil {
			addError(i, err)
			continue
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				addError(i, err)
				return nil
			}
			path := filepath.Join(outDir, names[i])
			if err := r.mergeRecord(template, j, record, path); err != nil {
				r.Logger.Warn("record failed", zap.Int("record", i), zap.Error(err))
				addError(i, err)
				return nil
			}
			r.Logger.Debug("record written", zap.Int("record", i), zap.String("path", path))
			written[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	var results []Result
	for i, ok := range written {
		if ok {
			results = append(results, Result{Record: i, Path: filepath.Join(outDir, names[i])})
		}
	}

	r.Logger.Info("batch finished",
		zap.Int("records", len(j.Records)),
		zap.Int("written", len(results)),
		zap.Int("failed", errs.Len()))

	return results, errs.Err()
}

func (r *Runner) mergeRecord(template []byte, j *Job, record mailmerge.Values, path string) error {
	out, err := Merge(template, j, record,
		mailmerge.WithConfig(r.Config),
		mailmerge.WithLogger(r.Logger))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return mailmerge.NewDocumentError("write", path, err)
	}
	return nil
}

// outputNames picks a file name per record: the sanitized name_field value,
// or record-<n> when it is missing. Duplicates get a numeric suffix.
func outputNames(records []mailmerge.Values, nameField string) []string {
	names := make([]string, len(records))
	seen := make(map[string]int)
	for i, record := range records {
		base := ""
		if nameField != "" {
			if v, ok := record[nameField]; ok && v != nil {
				base = sanitizeFilename(fmt.Sprint(v))
			}
		}
		if base == "" {
			base = fmt.Sprintf("record-%d", i+1)
		}
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		names[i] = base + ".docx"
	}
	return names
}

func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), ".")
	return name
}
