// Package config assembles the application configuration: the feed source
// registry and the environment-driven settings of the API process.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"news-aggregator/internal/domain/entity"
)

// DefaultSources is the built-in registry, in display order.
var DefaultSources = []entity.Source{
	{Name: "VOA Amharic", FeedURL: "https://amharic.voanews.com/api/zy--yl-vomx-tpetyqqv"},
	{Name: "Addis Standard", FeedURL: "https://addisstandard.com/feed/"},
	{Name: "Aiga News", FeedURL: "https://aiganews.com/feed"},
	{Name: "Ethiopia Insight", FeedURL: "https://ethiopia-insight.com/feed"},
	{Name: "New Business Ethiopia", FeedURL: "https://newbusinessethiopia.com/feed"},
	{Name: "Maleda Times", FeedURL: "https://maledatimes.com/feed"},
	{Name: "Ethiopia Nege", FeedURL: "https://ethiopianege.com/feed"},
	{Name: "Debteraw", FeedURL: "https://debteraw.com/feed"},
}

type sourcesDoc struct {
	Sources []entity.Source `yaml:"sources"`
}

// LoadSources builds the source registry. An empty path selects DefaultSources;
// otherwise path is a YAML document of the form
//
//	sources:
//	  - name: Addis Standard
//	    url: https://addisstandard.com/feed/
func LoadSources(path string) (*entity.Registry, error) {
	if path == "" {
		return entity.NewRegistry(DefaultSources)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSources: read %s: %w", path, err)
	}
	var doc sourcesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("LoadSources: decode %s: %w", path, err)
	}
	reg, err := entity.NewRegistry(doc.Sources)
	if err != nil {
		return nil, fmt.Errorf("LoadSources: %s: %w", path, err)
	}
	return reg, nil
}
