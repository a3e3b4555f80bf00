// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot persists the graph as dated, append-only JSON files and
// decides when the running process checkpoints.
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/internal/metrics"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// ErrNoSnapshot is returned by Load when no snapshot in the directory can
// be decoded.
var ErrNoSnapshot = errors.New("no loadable snapshot")

const (
	defaultPrefix = "lexgraph"
	timeLayout    = "2006-01-02T150405Z"
)

// Info describes one snapshot file.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Seq       int       `json:"seq,omitempty" yaml:"seq,omitempty"`
	Size      int64     `json:"size" yaml:"size"`
	Nodes     int       `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges     int       `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// SkippedFile is a snapshot that could not be loaded.
type SkippedFile struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// LoadResult describes the snapshot a store was built from.
type LoadResult struct {
	Info    Info
	Report  graph.LoadReport
	Skipped []SkippedFile
}

// Manager reads and writes snapshots in one directory.
type Manager struct {
	dir     string
	prefix  string
	pattern *regexp.Regexp
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu sync.Mutex // serialises Save
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = logger.OrNop(l) }
}

// WithMetrics counts saves on mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a manager for cfg.Dir. The prefix defaults to "lexgraph".
func New(cfg types.SnapshotConfig, opts ...Option) *Manager {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	m := &Manager{
		dir:     cfg.Dir,
		prefix:  prefix,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(\d{4}-\d{2}-\d{2}T\d{6}Z)(?:-(\d+))?\.json$`),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// Save writes the current graph to a new dated file. An existing file is
// never replaced: a second save within the same second gets a sequence
// suffix. The data is fsynced before it becomes visible under its final
// name.
func (m *Manager) Save(ctx context.Context, store *graph.Store) (info Info, err error) {
	defer func() {
		m.metrics.SnapshotSaved(err)
		if err != nil {
			m.log.Error("snapshot save failed", zap.String("dir", m.dir), zap.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("creating snapshot directory: %w", err)
	}

	now := m.now().UTC().Truncate(time.Second)
	nodes, edges := store.Export()
	doc := NewDocument(nodes, edges, now)

	tmp, err := os.CreateTemp(m.dir, "."+m.prefix+"-*.tmp")
	if err != nil {
		return Info{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, doc); err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("closing snapshot: %w", err)
	}

	// Link fails on an existing name, so a file is never overwritten.
	for seq := 0; ; seq++ {
		name := m.fileName(now, seq)
		path := filepath.Join(m.dir, name)
		err := os.Link(tmp.Name(), path)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Info{}, fmt.Errorf("publishing snapshot %s: %w", name, err)
		}
		syncDir(m.dir)

		info = Info{Name: name, Path: path, CreatedAt: now, Seq: seq, Nodes: len(nodes), Edges: len(edges)}
		if st, err := os.Stat(path); err == nil {
			info.Size = st.Size()
		}
		m.log.Info("snapshot saved",
			zap.String("path", path),
			zap.Int("nodes", info.Nodes),
			zap.Int("edges", info.Edges),
		)
		return info, nil
	}
}

// Load builds a store from the newest snapshot that decodes. Newer files
// that fail are reported in LoadResult.Skipped.
func (m *Manager) Load(ctx context.Context) (*graph.Store, LoadResult, error) {
	var res LoadResult
	infos, err := m.List()
	if err != nil {
		return nil, res, fmt.Errorf("%w: %v", ErrNoSnapshot, err)
	}

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		doc, err := readFile(info.Path)
		if err != nil {
			m.log.Warn("skipping unreadable snapshot", zap.String("path", info.Path), zap.Error(err))
			res.Skipped = append(res.Skipped, SkippedFile{Name: info.Name, Error: err.Error()})
			continue
		}

		nodes, edges := doc.Graph()
		store, report := graph.Load(nodes, edges)
		info.Nodes, info.Edges = report.Nodes, report.Edges
		res.Info, res.Report = info, report

		m.log.Info("snapshot loaded",
			zap.String("path", info.Path),
			zap.Int("nodes", report.Nodes),
			zap.Int("edges", report.Edges),
			zap.Int("normalized", report.Normalized),
			zap.Int("implicit_nodes", report.ImplicitNodes),
			zap.Int("skipped_files", len(res.Skipped)),
		)
		m.metrics.SetGraphSize(report.Nodes, report.Edges)
		return store, res, nil
	}
	return nil, res, fmt.Errorf("%w in %s", ErrNoSnapshot, m.dir)
}

// List returns the snapshots in the directory, newest first. Files not
// matching the naming scheme are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory %s: %w", m.dir, err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := m.pattern.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		t, err := time.Parse(timeLayout, match[1])
		if err != nil {
			continue
		}
		seq := 0
		if match[2] != "" {
			seq, _ = strconv.Atoi(match[2])
		}
		info := Info{Name: e.Name(), Path: filepath.Join(m.dir, e.Name()), CreatedAt: t, Seq: seq}
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// Init writes an empty seed snapshot when the directory has none. It
// reports whether a file was written.
func (m *Manager) Init(ctx context.Context) (Info, bool, error) {
	if infos, err := m.List(); err == nil && len(infos) > 0 {
		return infos[0], false, nil
	}
	info, err := m.Save(ctx, graph.New())
	if err != nil {
		return Info{}, false, err
	}
	return info, true, nil
}

func (m *Manager) fileName(t time.Time, seq int) string {
	name := m.prefix + "_" + t.Format(timeLayout)
	if seq > 0 {
		name += "-" + strconv.Itoa(seq)
	}
	return name + ".json"
}

func readFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	doc, err := Decode(bufio.NewReader(f))
	if err != nil {
		return Document{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// syncDir makes a rename or link durable. Errors are ignored because not
// every platform supports syncing a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
