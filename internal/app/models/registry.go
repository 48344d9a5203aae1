// Package models knows the published whisper.cpp ggml checkpoints and how to
// fetch them into a local model directory.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const hfBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Model is a downloadable checkpoint
type Model struct {
	Name     string
	FileName string
	URL      string
	SHA256   string
	// Multilingual is false for the English-only ".en" variants.
	Multilingual bool
}

// Resolved is the outcome of mapping a model reference to a file on disk.
type Resolved struct {
	Name          string
	Path          string
	URL           string
	SHA256        string
	NeedsDownload bool
	IsCustomPath  bool
}

var registry = map[string]Model{
	"tiny": {
		Name:         "tiny",
		FileName:     "ggml-tiny.bin",
		URL:          hfBase + "ggml-tiny.bin",
		SHA256:       "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21",
		Multilingual: true,
	},
	"base": {
		Name:         "base",
		FileName:     "ggml-base.bin",
		URL:          hfBase + "ggml-base.bin",
		SHA256:       "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe",
		Multilingual: true,
	},
	"small": {
		Name:         "small",
		FileName:     "ggml-small.bin",
		URL:          hfBase + "ggml-small.bin",
		SHA256:       "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b",
		Multilingual: true,
	},
	"medium": {
		Name:         "medium",
		FileName:     "ggml-medium.bin",
		URL:          hfBase + "ggml-medium.bin",
		SHA256:       "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208",
		Multilingual: true,
	},
	"large-v3": {
		Name:         "large-v3",
		FileName:     "ggml-large-v3.bin",
		URL:          hfBase + "ggml-large-v3.bin",
		SHA256:       "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
		Multilingual: true,
	},
}

// Names lists the known model names in sorted order.
func Names() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}

// All returns every known model sorted by name.
func All() []Model {
	return lo.Map(Names(), func(name string, _ int) Model { return registry[name] })
}

// Lookup finds a model by name
func Lookup(name string) (Model, bool) {
	m, ok := registry[name]
	return m, ok
}

// Resolve maps ref to a checkpoint path. A known name resolves inside dir and
// may need a download; anything that looks like a path must already exist.
func Resolve(ref, dir string) (Resolved, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolved{}, errors.New("model reference must not be empty")
	}

	if m, ok := Lookup(ref); ok {
		if strings.TrimSpace(dir) == "" {
			return Resolved{}, errors.New("model directory must not be empty for named model")
		}
		path := filepath.Join(dir, m.FileName)
		_, err := os.Stat(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Resolved{}, fmt.Errorf("stat model path: %w", err)
		}
		return Resolved{
			Name:          m.Name,
			Path:          path,
			URL:           m.URL,
			SHA256:        m.SHA256,
			NeedsDownload: errors.Is(err, os.ErrNotExist),
		}, nil
	}

	if !looksLikePath(ref) {
		return Resolved{}, fmt.Errorf("unknown model %q (known models: %s)", ref, strings.Join(Names(), ", "))
	}

	path := filepath.Clean(ref)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Resolved{}, fmt.Errorf("model file does not exist: %s", path)
		}
		return Resolved{}, fmt.Errorf("stat model file: %w", err)
	}
	return Resolved{
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:         path,
		IsCustomPath: true,
	}, nil
}

func looksLikePath(ref string) bool {
	return strings.ContainsRune(ref, os.PathSeparator) || strings.HasSuffix(strings.ToLower(ref), ".bin")
}
