package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
)

// ErrEmptyKey is returned when a style block has no key.
var ErrEmptyKey = errors.New("empty style key")

// Sheet is an in-memory style sheet made of keyed blocks. It stands in for
// the document's head: each exported item owns one block, replaced on every
// export.
type Sheet struct {
	mu     sync.RWMutex
	keys   []string
	blocks map[string]string
}

// NewSheet creates an empty Sheet.
func NewSheet() *Sheet {
	s := new(Sheet)
	s.blocks = make(map[string]string)
	return s
}

// Upsert stores cssText under key, keeping the position of its first insert.
func (s *Sheet) Upsert(key, cssText string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.blocks[key] = cssText
	return nil
}

// Remove drops the block stored under key.
func (s *Sheet) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[key]; !ok {
		return
	}
	delete(s.blocks, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Block returns the text stored under key.
func (s *Sheet) Block(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.blocks[key]
	return text, ok
}

// Len returns the number of blocks.
func (s *Sheet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Text renders every block in insertion order.
func (s *Sheet) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b strings.Builder
	for _, k := range s.keys {
		b.WriteString("/* " + k + " */\n")
		b.WriteString(s.blocks[k])
		b.WriteString("\n")
	}
	return b.String()
}

// ServeHTTP writes the sheet as text/css.
func (s *Sheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(s.Text()))
}
