package domain

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Artifacts
// =============================================================================

// Artifact is one file in a deployment payload. Path is slash-separated and
// relative to the project root.
type Artifact struct {
	Path string
	Data []byte
}

// ArtifactSet is an ordered collection of files to publish. Order is
// deterministic (sorted by path) so payloads are reproducible.
type ArtifactSet struct {
	files []Artifact
}

// NewArtifactSet validates and orders a set of artifacts.
func NewArtifactSet(files []Artifact) (*ArtifactSet, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to deploy", ErrValidation)
	}

	seen := make(map[string]bool, len(files))
	normalized := make([]Artifact, 0, len(files))
	for _, f := range files {
		path := strings.ReplaceAll(f.Path, `\`, "/")
		if err := validateArtifactPath(path); err != nil {
			return nil, err
		}
		if seen[path] {
			return nil, fmt.Errorf("%w: duplicate artifact path %q", ErrValidation, path)
		}
		seen[path] = true
		normalized = append(normalized, Artifact{Path: path, Data: f.Data})
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Path < normalized[j].Path
	})

	return &ArtifactSet{files: normalized}, nil
}

func validateArtifactPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty artifact path", ErrValidation)
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: absolute artifact path %q", ErrValidation, path)
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return fmt.Errorf("%w: artifact path %q escapes the project root", ErrValidation, path)
		}
	}
	return nil
}

// Files returns the artifacts in path order.
func (s *ArtifactSet) Files() []Artifact {
	return s.files
}

// Len returns the number of artifacts.
func (s *ArtifactSet) Len() int {
	return len(s.files)
}

// Size returns the total payload size in bytes.
func (s *ArtifactSet) Size() int64 {
	var total int64
	for _, f := range s.files {
		total += int64(len(f.Data))
	}
	return total
}

// =============================================================================
// Wire Encodings
// =============================================================================

// FileEntry is one inline file in a Vercel deployment request body.
type FileEntry struct {
	File     string `json:"file"`
	Data     string `json:"data"`
	Encoding string `json:"encoding"`
}

// FileMap encodes the set as inline base64 entries.
func (s *ArtifactSet) FileMap() []FileEntry {
	entries := make([]FileEntry, 0, len(s.files))
	for _, f := range s.files {
		entries = append(entries, FileEntry{
			File:     f.Path,
			Data:     base64.StdEncoding.EncodeToString(f.Data),
			Encoding: "base64",
		})
	}
	return entries
}

// Zip encodes the set as a deflate-compressed archive for zip-upload
// platforms (Netlify).
func (s *ArtifactSet) Zip() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range s.files {
		entry, err := w.Create(f.Path)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", f.Path, err)
		}
		if _, err := entry.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", f.Path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}
