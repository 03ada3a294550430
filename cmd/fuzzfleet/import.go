package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/fuzzfleet/pkg/db"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/job/pgstore"
	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
)

// manifest is the import file format:
//
//	inputs:
//	  - path: corpus/png/basn0g01.png
//	targets:
//	  - name: libpng
//	    jobs:
//	      - job_type: fuzz
//	        mutator: radamsa
//	        driver: afl
//	        inputs: [corpus/png/basn0g01.png]
//
// Jobs refer to inputs by path. Paths that are not listed under inputs are
// created on first use.
type manifest struct {
	Inputs  []manifestInput  `yaml:"inputs" validate:"dive"`
	Targets []manifestTarget `yaml:"targets" validate:"required,min=1,dive"`
}

type manifestInput struct {
	Path string `yaml:"path" validate:"required,max=1024"`
}

type manifestTarget struct {
	Name string        `yaml:"name" validate:"required,max=255"`
	Jobs []manifestJob `yaml:"jobs" validate:"dive"`
}

type manifestJob struct {
	Type                job.Type `yaml:"job_type" validate:"omitempty,oneof=fuzz other"`
	Mutator             string   `yaml:"mutator"`
	MutatorState        string   `yaml:"mutator_state"`
	InstrumentationType string   `yaml:"instrumentation_type"`
	Driver              string   `yaml:"driver"`
	SeedFile            string   `yaml:"seed_file"`
	Inputs              []string `yaml:"inputs" validate:"dive,required,max=1024"`
}

var errDuplicateName = errors.New("target listed twice")

// parseManifest decodes and validates a manifest. Unknown keys are errors.
func parseManifest(r io.Reader) (manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return manifest{}, errors.New("manifest is empty")
		}
		return manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(m); err != nil {
		return manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}

	seen := make(map[string]struct{}, len(m.Targets))
	for _, t := range m.Targets {
		if _, ok := seen[t.Name]; ok {
			return manifest{}, fmt.Errorf("%w: %s", errDuplicateName, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return m, nil
}

type jobCreator interface {
	Create(ctx context.Context, p job.CreateParams) (job.Job, error)
}

type importResult struct {
	Targets int
	Inputs  int
	Jobs    int
}

// importManifest creates everything in m. It stops at the first error and
// returns what was created up to that point; nothing is rolled back.
func importManifest(ctx context.Context, reg job.Registry, jobs jobCreator, m manifest, log *slog.Logger) (importResult, error) {
	var res importResult
	inputs := make(map[string]int64)

	input := func(path string) (int64, error) {
		if id, ok := inputs[path]; ok {
			return id, nil
		}
		in, err := reg.CreateInput(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("create input %q: %w", path, err)
		}
		inputs[path] = in.ID
		res.Inputs++
		return in.ID, nil
	}

	for _, in := range m.Inputs {
		if _, err := input(in.Path); err != nil {
			return res, err
		}
	}

	for _, mt := range m.Targets {
		t, err := reg.CreateTarget(ctx, mt.Name)
		if err != nil {
			return res, fmt.Errorf("create target %q: %w", mt.Name, err)
		}
		res.Targets++

		for i, mj := range mt.Jobs {
			ids := make([]int64, 0, len(mj.Inputs))
			for _, path := range mj.Inputs {
				id, err := input(path)
				if err != nil {
					return res, err
				}
				ids = append(ids, id)
			}

			j, err := jobs.Create(ctx, job.CreateParams{
				Type:                mj.Type,
				Mutator:             mj.Mutator,
				MutatorState:        mj.MutatorState,
				InstrumentationType: mj.InstrumentationType,
				Driver:              mj.Driver,
				SeedFile:            mj.SeedFile,
				InputIDs:            ids,
				TargetID:            t.ID,
			})
			if err != nil {
				return res, fmt.Errorf("target %q job %d: %w", mt.Name, i, err)
			}
			res.Jobs++
			log.DebugContext(ctx, "job imported",
				slog.Int64("job_id", j.ID),
				slog.String("target", mt.Name),
			)
		}
	}
	return res, nil
}

func importAction(ctx context.Context, cmd *cli.Command) error {
	f, err := os.Open(cmd.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := parseManifest(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	if cmd.Bool("dry-run") {
		log.InfoContext(ctx, "manifest is valid", slog.Int("targets", len(m.Targets)))
		return nil
	}
	if !cfg.DB.Enabled() {
		return errNoDatabase
	}

	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := pgstore.New(pool)
	svc := job.NewService(store, store, store, job.WithLogger(log))

	res, err := importManifest(ctx, store, svc, m, log)
	log.InfoContext(ctx, "import finished",
		slog.Int("targets", res.Targets),
		slog.Int("inputs", res.Inputs),
		slog.Int("jobs", res.Jobs),
	)
	return err
}
