package simpleadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// RepositoryKeyIndex reads referenced media keys from the live post
// repository, one list per post.
type RepositoryKeyIndex struct {
	repository Repository
}

// NewRepositoryKeyIndex creates a key index backed by repo.
func NewRepositoryKeyIndex(repo Repository) *RepositoryKeyIndex {
	return &RepositoryKeyIndex{repository: repo}
}

// KeyLists returns the image keys of every post.
func (k *RepositoryKeyIndex) KeyLists(ctx context.Context) ([][]string, error) {
	posts, err := k.repository.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts for key index: %w", err)
	}
	lists := make([][]string, 0, len(posts))
	for _, p := range posts {
		lists = append(lists, p.ImageKeys())
	}
	return lists, nil
}

// StaticKeyIndex is a fixed set of key lists.
type StaticKeyIndex [][]string

// KeyLists returns the fixed key lists.
func (s StaticKeyIndex) KeyLists(context.Context) ([][]string, error) {
	return s, nil
}

// FileKeyIndex reads key lists exported at build time.
//
// Two document shapes are accepted: a bare array of key arrays, or the
// site-generator export {"allImageKeys":{"edges":[{"node":{"data":[...]}}]}}
// optionally wrapped in a top-level "data" object.
type FileKeyIndex struct {
	Path string
}

// NewFileKeyIndex creates a key index reading path on every call.
func NewFileKeyIndex(path string) *FileKeyIndex {
	return &FileKeyIndex{Path: path}
}

// KeyLists reads and parses the export file.
func (f *FileKeyIndex) KeyLists(ctx context.Context) ([][]string, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key index %s: %w", f.Path, err)
	}
	return ParseKeyIndex(raw)
}

type imageKeysExport struct {
	AllImageKeys struct {
		Edges []struct {
			Node struct {
				Data []string `json:"data"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"allImageKeys"`
}

// ParseKeyIndex decodes a key index document (see FileKeyIndex).
func ParseKeyIndex(raw []byte) ([][]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return [][]string{}, nil
	}

	if trimmed[0] == '[' {
		var lists [][]string
		if err := json.Unmarshal(trimmed, &lists); err != nil {
			return nil, fmt.Errorf("invalid key index: %w", err)
		}
		return lists, nil
	}

	var wrapped struct {
		Data *imageKeysExport `json:"data"`
		imageKeysExport
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid key index: %w", err)
	}
	export := wrapped.imageKeysExport
	if wrapped.Data != nil {
		export = *wrapped.Data
	}

	lists := make([][]string, 0, len(export.AllImageKeys.Edges))
	for _, edge := range export.AllImageKeys.Edges {
		lists = append(lists, edge.Node.Data)
	}
	return lists, nil
}
