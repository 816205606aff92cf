package config

import (
	"fmt"
	"path/filepath"

	"github.com/haivivi/stemrender/pkg/render"
	"github.com/haivivi/stemrender/pkg/storage"
)

// RenderServiceName is the service file holding the render configuration.
const RenderServiceName = "render"

// RenderService is the render.yaml of a context.
//
//	sample_rate: 44100
//	workers: 4
//	samples: {kind: local, dir: ./samples}
//	output:  {kind: s3, bucket: renders, prefix: stems, region: us-east-1}
//	catalog_dir: ./catalog
//	runs_dir: ./runs
type RenderService struct {
	SampleRate int `yaml:"sample_rate,omitempty"`
	Workers    int `yaml:"workers,omitempty"`

	Samples storage.Spec `yaml:"samples"`
	Output  storage.Spec `yaml:"output"`

	// CatalogDir and RunsDir hold badger databases. They may be the same
	// directory.
	CatalogDir string `yaml:"catalog_dir"`
	RunsDir    string `yaml:"runs_dir"`

	// Pitch overrides the default pitch policy. Fields left out keep their
	// default values.
	Pitch *render.PitchPolicy `yaml:"pitch,omitempty"`
}

// LoadRender loads and validates render.yaml from a context directory.
// Relative local paths are resolved against the context directory.
func LoadRender(contextDir string) (*RenderService, error) {
	svc, err := LoadService[RenderService](contextDir, RenderServiceName)
	if err != nil {
		return nil, err
	}
	svc.resolve(contextDir)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if svc.Pitch != nil {
		p := svc.Pitch.WithDefaults()
		svc.Pitch = &p
	}
	return svc, nil
}

func (s *RenderService) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	s.CatalogDir = abs(s.CatalogDir)
	s.RunsDir = abs(s.RunsDir)
	if s.Samples.Kind == "" || s.Samples.Kind == "local" {
		s.Samples.Dir = abs(s.Samples.Dir)
	}
	if s.Output.Kind == "" || s.Output.Kind == "local" {
		s.Output.Dir = abs(s.Output.Dir)
	}
}

// Validate reports missing or out-of-range settings.
func (s *RenderService) Validate() error {
	if s.SampleRate < 0 {
		return fmt.Errorf("render config: sample_rate %d must be positive", s.SampleRate)
	}
	if s.Workers < 0 {
		return fmt.Errorf("render config: workers %d must be positive", s.Workers)
	}
	if s.CatalogDir == "" {
		return fmt.Errorf("render config: catalog_dir is required")
	}
	if s.RunsDir == "" {
		return fmt.Errorf("render config: runs_dir is required")
	}
	if s.Pitch != nil {
		if err := s.Pitch.Validate(); err != nil {
			return fmt.Errorf("render config: %w", err)
		}
	}
	if err := validateSpec("samples", s.Samples); err != nil {
		return err
	}
	return validateSpec("output", s.Output)
}

func validateSpec(name string, spec storage.Spec) error {
	switch spec.Kind {
	case "", "local":
		if spec.Dir == "" {
			return fmt.Errorf("render config: %s.dir is required", name)
		}
	case "s3":
		if spec.Bucket == "" {
			return fmt.Errorf("render config: %s.bucket is required", name)
		}
	default:
		return fmt.Errorf("render config: %s.kind %q is not local or s3", name, spec.Kind)
	}
	return nil
}
