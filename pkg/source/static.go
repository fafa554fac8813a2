package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// StaticSource serves samples from an in-memory fixture. Used for offline
// analysis of exported metrics and as the test double for the pipeline.
// Fetch is restartable: every call re-reads the full backing slice.
type StaticSource struct {
	name      string
	resources []models.ResourceInfo
	samples   []models.ResourceSample
}

type staticFile struct {
	Resources []models.ResourceInfo   `yaml:"resources"`
	Samples   []models.ResourceSample `yaml:"samples"`
}

// NewStaticSource wraps the given inventory and samples.
func NewStaticSource(name string, resources []models.ResourceInfo, samples []models.ResourceSample) *StaticSource {
	return &StaticSource{
		name:      name,
		resources: resources,
		samples:   samples,
	}
}

// LoadStaticSource reads a yaml fixture with resources and samples.
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples file: %w", err)
	}

	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse samples file %s: %w", path, err)
	}

	return NewStaticSource("static:"+path, f.Resources, f.Samples), nil
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) IsAvailable(ctx context.Context) bool {
	return true
}

func (s *StaticSource) ListResources(ctx context.Context) ([]models.ResourceInfo, error) {
	out := make([]models.ResourceInfo, len(s.resources))
	copy(out, s.resources)
	return out, nil
}

func (s *StaticSource) Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: resource id set must be non-empty", s.name)
	}
	if !window.IsValid() {
		return nil, fmt.Errorf("%s: invalid window %v..%v", s.name, window.Start, window.End)
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []models.ResourceSample
	for _, sample := range s.samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if wanted[sample.ResourceID] && window.Contains(sample.Timestamp) {
			out = append(out, sample)
		}
	}

	if missing := MissingFrom(ids, out); len(missing) > 0 {
		return out, NewPartialDataError(s.name, missing)
	}
	return out, nil
}
