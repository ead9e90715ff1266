package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileSource reads race cards from local JSON files. Used by the
// one-shot analyze command and in tests.
type FileSource struct {
	paths []string
}

// NewFileSource creates a source over explicit file paths
func NewFileSource(paths ...string) *FileSource {
	return &FileSource{paths: paths}
}

// NewDirSource creates a source over every .json file in a directory
func NewDirSource(dir string) (*FileSource, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, NewSourceError("file", "glob", err)
	}
	if len(matches) == 0 {
		return nil, NewSourceError("file", "glob",
			fmt.Errorf("no .json files in %s", dir))
	}
	sort.Strings(matches)
	return &FileSource{paths: matches}, nil
}

// Name returns the name of the source
func (s *FileSource) Name() string {
	return "file"
}

// FetchCards reads and decodes every configured file. A file may hold
// either a single race document or an array of them.
func (s *FileSource) FetchCards(ctx context.Context) ([]RaceCard, error) {
	var cards []RaceCard
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewSourceError(s.Name(), "read", err)
		}

		var docs []raceDocument
		if err := json.Unmarshal(data, &docs); err != nil {
			var single raceDocument
			if err2 := json.Unmarshal(data, &single); err2 != nil {
				return nil, NewSourceError(s.Name(), "decode",
					fmt.Errorf("%s: %w", path, err))
			}
			docs = []raceDocument{single}
		}

		for i := range docs {
			cards = append(cards, docs[i].toCard())
		}
	}
	return cards, nil
}
