package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package sources contains pluggable source configs (YAML/JSON) helpers.

const (
	TypeRSS   = "rss"
	TypeArxiv = "arxiv"

	defaultMaxResults = 50
)

// Source describes one upstream to pull candidate documents from.
type Source struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	// URL is the feed location for rss sources.
	URL string `json:"url" yaml:"url"`
	// Query is the arXiv search expression for arxiv sources.
	Query string `json:"query" yaml:"query"`
	// MaxResults caps how many entries this source may contribute.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

type registryFile struct {
	Interests []string `json:"interests" yaml:"interests"`
	Sources   []Source `json:"sources" yaml:"sources"`
}

// Registry materializes source definitions loaded from a config file.
type Registry struct {
	mu        sync.RWMutex
	sources   []Source
	interests []string
	idx       map[string]Source
}

// LoadRegistry loads the source registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	reg := &Registry{
		sources: make([]Source, len(parsed.Sources)),
		idx:     make(map[string]Source, len(parsed.Sources)),
	}

	for i := range parsed.Sources {
		src := sanitizeSource(parsed.Sources[i])
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[src.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		reg.sources[i] = src
		reg.idx[src.ID] = src
	}

	for _, kw := range parsed.Interests {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			reg.interests = append(reg.interests, kw)
		}
	}

	return reg, nil
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: func(d []byte, out any) error { return yaml.Unmarshal(d, out) }},
		{name: "yaml", ext: ".yml", fn: func(d []byte, out any) error { return yaml.Unmarshal(d, out) }},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var parsed registryFile
		if err := d.fn(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeSource(src Source) Source {
	src.ID = strings.TrimSpace(src.ID)
	src.Name = strings.TrimSpace(src.Name)
	src.Type = strings.ToLower(strings.TrimSpace(src.Type))
	src.URL = strings.TrimSpace(src.URL)
	src.Query = strings.TrimSpace(src.Query)
	if src.MaxResults <= 0 {
		src.MaxResults = defaultMaxResults
	}
	return src
}

func validateSource(src Source) error {
	if src.ID == "" {
		return errors.New("id is required")
	}
	if src.Name == "" {
		return fmt.Errorf("name is required for source %q", src.ID)
	}
	switch src.Type {
	case "":
		return fmt.Errorf("type is required for source %q", src.ID)
	case TypeRSS:
		if src.URL == "" {
			return fmt.Errorf("url is required for rss source %q", src.ID)
		}
	case TypeArxiv:
		if src.Query == "" {
			return fmt.Errorf("query is required for arxiv source %q", src.ID)
		}
	default:
		return fmt.Errorf("unsupported source type %q for source %q", src.Type, src.ID)
	}
	return nil
}

// All returns a copy of the configured sources.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ByID returns the source entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.idx[id]
	return src, ok
}

// Interests returns the lowercased relevance keywords, empty when the
// registry accepts everything.
func (r *Registry) Interests() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.interests))
	copy(out, r.interests)
	return out
}
