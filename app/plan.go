package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"hypotest/internal/dataset"
	"hypotest/internal/errors"
	"hypotest/models"
	"hypotest/ports"
)

// Plan is a batch of group comparisons read from a YAML file.
// Plan-level options apply to every entry that does not set its own.
type Plan struct {
	Alpha       *float64    `yaml:"alpha" validate:"omitempty,gt=0,lt=1"`
	Method      string      `yaml:"method" validate:"omitempty,oneof=welch student pooled"`
	Alternative string      `yaml:"alternative" validate:"omitempty,oneof=two-sided less greater"`
	Concurrency int         `yaml:"concurrency" validate:"omitempty,min=1,max=64"`
	Comparisons []PlanEntry `yaml:"comparisons" validate:"required,min=1,unique=Name,dive"`
}

// PlanEntry is one comparison of a plan
type PlanEntry struct {
	Name        string   `yaml:"name" validate:"required"`
	File        string   `yaml:"file" validate:"required"`
	Sheet       string   `yaml:"sheet"`
	GroupColumn string   `yaml:"group_column" validate:"required"`
	ValueColumn string   `yaml:"value_column" validate:"required"`
	GroupA      string   `yaml:"group_a" validate:"required"`
	GroupB      string   `yaml:"group_b" validate:"required,nefield=GroupA"`
	Alpha       *float64 `yaml:"alpha" validate:"omitempty,gt=0,lt=1"`
	Method      string   `yaml:"method" validate:"omitempty,oneof=welch student pooled"`
	Alternative string   `yaml:"alternative" validate:"omitempty,oneof=two-sided less greater"`
}

var planValidator = validator.New()

// LoadPlan reads and validates a plan file. Relative data file paths are
// resolved against the plan's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("plan file " + path)
		}
		return nil, errors.Wrapf(err, "read plan %s", path)
	}
	return ParsePlan(data, filepath.Dir(path))
}

// ParsePlan decodes a YAML plan; baseDir anchors relative file paths
func ParsePlan(data []byte, baseDir string) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid plan: %v", err))
	}
	if err := planValidator.Struct(&plan); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, errors.ValidationError(fmt.Sprintf("invalid plan: %s fails %s", fe.Namespace(), fe.Tag()))
		}
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	for i := range plan.Comparisons {
		file := plan.Comparisons[i].File
		if baseDir != "" && !filepath.IsAbs(file) {
			plan.Comparisons[i].File = filepath.Join(baseDir, file)
		}
	}
	return &plan, nil
}

// options merges entry options over plan options
func (p *Plan) options(e PlanEntry) Options {
	opts := Options{Alpha: p.Alpha, Method: p.Method, Alternative: p.Alternative}
	if e.Alpha != nil {
		opts.Alpha = e.Alpha
	}
	if e.Method != "" {
		opts.Method = e.Method
	}
	if e.Alternative != "" {
		opts.Alternative = e.Alternative
	}
	return opts
}

type tableKey struct {
	file  string
	sheet string
}

// RunPlan runs every comparison of the plan and returns the results in plan
// order. Each distinct file is loaded once. Entries run concurrently up to the
// plan's concurrency; the first failure cancels the rest and is returned.
func (s *ComparisonService) RunPlan(ctx context.Context, plan *Plan, loader ports.TableLoader) ([]*models.Comparison, error) {
	if plan == nil || len(plan.Comparisons) == 0 {
		return nil, errors.InvalidInput("plan has no comparisons")
	}
	if loader == nil {
		return nil, errors.InternalError("no table loader configured")
	}

	limit := plan.Concurrency
	if limit <= 0 {
		limit = s.defaults.Concurrency
	}

	tables, err := loadTables(ctx, plan, loader, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*models.Comparison, len(plan.Comparisons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range plan.Comparisons {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table := tables[tableKey{entry.File, entry.Sheet}]
			comparison, err := s.CompareGroups(gctx, table, GroupRequest{
				Name:        entry.Name,
				GroupColumn: entry.GroupColumn,
				ValueColumn: entry.ValueColumn,
				GroupA:      entry.GroupA,
				GroupB:      entry.GroupB,
				Options:     plan.options(entry),
			})
			if err != nil {
				return errors.Wrapf(err, "comparison %q", entry.Name)
			}
			s.logger.Debug("%s: t=%.4f p=%.4g %s", entry.Name, comparison.Result.Statistic, comparison.Result.PValue, comparison.Result.Decision())
			results[i] = comparison
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Plan complete: %d comparisons from %d files", len(results), len(tables))
	return results, nil
}

func loadTables(ctx context.Context, plan *Plan, loader ports.TableLoader, limit int) (map[tableKey]*dataset.Table, error) {
	var (
		mu     sync.Mutex
		tables = make(map[tableKey]*dataset.Table)
		seen   = make(map[tableKey]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, entry := range plan.Comparisons {
		key := tableKey{entry.File, entry.Sheet}
		if seen[key] {
			continue
		}
		seen[key] = true

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := loader(key.file, key.sheet)
			if err != nil {
				return errors.Wrapf(err, "load %s", key.file)
			}
			mu.Lock()
			tables[key] = table
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
