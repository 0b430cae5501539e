package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"

	"github.com/rs/zerolog/log"
)

// Snapshot is the file form of a load: board sprints plus their labels.
type Snapshot struct {
	Sprints []sprint.Sprint   `json:"sprints"`
	Labels  map[string]string `json:"labels"`
}

// SaveSnapshot writes the snapshot through a temp file and an atomic rename.
func SaveSnapshot(path string, snap Snapshot) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	log.Info().Str("path", path).Int("sprints", len(snap.Sprints)).Msg("Snapshot saved")
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	if snap.Labels == nil {
		snap.Labels = make(map[string]string)
	}
	return snap, nil
}

// FileSource serves a snapshot from disk. Group selections aggregate the
// snapshot's board sprints like a live load.
type FileSource struct {
	Path string
	Opts Options
}

func NewFileSource(path string, opts Options) *FileSource {
	return &FileSource{Path: path, Opts: opts.withDefaults()}
}

func (f *FileSource) Boards(context.Context) ([]Board, error) {
	snap, err := LoadSnapshot(f.Path)
	if err != nil {
		return nil, err
	}
	var out []Board
	for _, s := range snap.Sprints {
		if !slices.ContainsFunc(out, func(b Board) bool { return b.ID == s.Board }) {
			out = append(out, Board{ID: s.Board, Name: labelOr(snap.Labels, s.Board)})
		}
	}
	return append(out, f.Opts.groupBoards()...), nil
}

// Load filters the snapshot to the selection; an empty selection takes every board.
func (f *FileSource) Load(ctx context.Context, selection []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := LoadSnapshot(f.Path)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		for _, s := range snap.Sprints {
			if !slices.Contains(selection, s.Board) {
				selection = append(selection, s.Board)
			}
		}
	}

	// Boards present in the snapshot shadow groups of the same name.
	var groups []rollup.Group
	for _, g := range f.Opts.Groups {
		if !slices.ContainsFunc(snap.Sprints, func(s sprint.Sprint) bool { return s.Board == g.Name }) {
			groups = append(groups, g)
		}
	}
	exp := rollup.Expand(selection, groups)
	var picked []sprint.Sprint
	for _, s := range snap.Sprints {
		if slices.Contains(exp.Boards, s.Board) {
			picked = append(picked, s)
		}
	}
	loaded := time.Now()
	if fi, err := os.Stat(f.Path); err == nil {
		loaded = fi.ModTime()
	}
	return finish(selection, picked, exp, snap.Labels, f.Opts, loaded), nil
}

// SnapshotOf converts a load result back into its file form.
func SnapshotOf(r *Result) Snapshot {
	return Snapshot{Sprints: r.Sprints, Labels: r.Labels}
}

func labelOr(labels map[string]string, id string) string {
	if l := labels[id]; l != "" {
		return l
	}
	return id
}
