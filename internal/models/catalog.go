// Package models knows the whisper.cpp model catalog and where downloaded
// models live on disk.
package models

import (
	"os"
	"path/filepath"
	"strings"
)

const downloadBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Model is a whisper.cpp model in the catalog.
type Model struct {
	Name      string
	Label     string
	SizeBytes int64
}

// File is the ggml file name the model is stored under.
func (m Model) File() string { return FileName(m.Name) }

// URL is where the model can be downloaded from.
func (m Model) URL() string { return downloadBase + m.File() }

var Catalog = []Model{
	{Name: "tiny.en", Label: "Tiny English", SizeBytes: 77_700_000},
	{Name: "tiny", Label: "Tiny Multilingual", SizeBytes: 77_700_000},
	{Name: "base.en", Label: "Base English", SizeBytes: 148_000_000},
	{Name: "base", Label: "Base Multilingual", SizeBytes: 148_000_000},
	{Name: "small.en", Label: "Small English", SizeBytes: 488_000_000},
	{Name: "small", Label: "Small Multilingual", SizeBytes: 488_000_000},
	{Name: "medium.en", Label: "Medium English", SizeBytes: 1_530_000_000},
	{Name: "medium", Label: "Medium Multilingual", SizeBytes: 1_530_000_000},
	{Name: "large-v3-turbo", Label: "Large v3 Turbo", SizeBytes: 1_620_000_000},
	{Name: "large-v3", Label: "Large v3", SizeBytes: 3_100_000_000},
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Model, bool) {
	for _, m := range Catalog {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// FileName maps a model name to its ggml file name. Names that already look
// like file names are returned unchanged.
func FileName(name string) string {
	if strings.HasSuffix(name, ".bin") {
		return name
	}
	return "ggml-" + name + ".bin"
}

// Store answers whether models are present in Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path is where model is expected on disk.
func (s *Store) Path(model string) string {
	return filepath.Join(s.Dir, FileName(model))
}

// Present reports whether model has been downloaded. Empty or truncated
// placeholder files do not count.
func (s *Store) Present(model string) bool {
	if strings.TrimSpace(model) == "" {
		return false
	}
	info, err := os.Stat(s.Path(model))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() > 0
}

// Status is a catalog entry with its on-disk state.
type Status struct {
	Model
	Present bool
	Path    string
}

// List returns every catalog model with its presence on disk.
func (s *Store) List() []Status {
	out := make([]Status, 0, len(Catalog))
	for _, m := range Catalog {
		out = append(out, Status{Model: m, Present: s.Present(m.Name), Path: s.Path(m.Name)})
	}
	return out
}
