package testsupport

import (
	"context"
	"io"
	"strings"
)

func (s *MemoryStore) Save(_ context.Context, subdir string, name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for prefix, failure := range s.Fail {
		if strings.HasPrefix(name, prefix) {
			return failure
		}
	}
	s.Files[subdir+"/"+name] = data
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, subdir string, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Files[subdir+"/"+name]
	return ok, nil
}

// Names lists stored keys ("subdir/name").
func (s *MemoryStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Files))
	for key := range s.Files {
		out = append(out, key)
	}
	return out
}
