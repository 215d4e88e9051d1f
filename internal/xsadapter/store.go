package xsadapter

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the reference XS driver: a pure-Go HNSW graph per collection
// (vectors only, gob-persisted) fronted by a SQLite table holding chunk
// content and metadata, generalized from Aman-CERP-amanmcp's HNSWStore —
// which paired coder/hnsw with a SQLite MetadataStore the same way.
type Store struct {
	logger   *slog.Logger
	dataPath string
	db       *sqlx.DB

	mu        sync.Mutex // guards graphs map and per-collection locks
	collMu    map[string]*sync.Mutex
	graphs    map[string]*collectionGraph
}

type collectionGraph struct {
	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

type graphMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
}

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name            TEXT PRIMARY KEY,
	embedding_model TEXT NOT NULL,
	chunk_size      INTEGER NOT NULL,
	chunk_overlap   INTEGER NOT NULL,
	dimensions      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	collection_name TEXT NOT NULL,
	id              TEXT NOT NULL,
	content         TEXT NOT NULL,
	metadata_json   TEXT NOT NULL,
	PRIMARY KEY (collection_name, id)
);
`

// Open opens (creating if absent) the SQLite side of the store at
// dataPath/chunks.db. Each collection's HNSW graph is lazily loaded from
// dataPath/<name>.hnsw on first access.
func Open(logger *slog.Logger, dataPath string) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("xsadapter: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataPath, "chunks.db")
	db, err := sqlx.Connect("sqlite3", dbPath+"?_journal=WAL&_fk=true")
	if err != nil {
		return nil, fmt.Errorf("xsadapter: open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("xsadapter: apply schema: %w", err)
	}

	return &Store{
		logger:   logger,
		dataPath: dataPath,
		db:       db,
		collMu:   make(map[string]*sync.Mutex),
		graphs:   make(map[string]*collectionGraph),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.collMu[name]
	if !ok {
		m = &sync.Mutex{}
		s.collMu[name] = m
	}
	return m
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM collections ORDER BY name`); err != nil {
		return nil, fmt.Errorf("xsadapter: list collections: %w", err)
	}
	return names, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, cfg CollectionConfig) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, embedding_model, chunk_size, chunk_overlap, dimensions) VALUES (?, ?, ?, ?, ?)`,
		name, cfg.EmbeddingModel, cfg.ChunkSize, cfg.ChunkOverlap, cfg.Dimensions)
	if err != nil {
		return fmt.Errorf("xsadapter: create collection %s: %w", name, err)
	}

	s.mu.Lock()
	s.graphs[name] = newCollectionGraph()
	s.mu.Unlock()
	return nil
}

func (s *Store) CollectionConfig(ctx context.Context, name string) (CollectionConfig, error) {
	var cfg CollectionConfig
	err := s.db.GetContext(ctx, &cfg,
		`SELECT embedding_model, chunk_size, chunk_overlap, dimensions FROM collections WHERE name = ?`, name)
	if err != nil {
		return CollectionConfig{}, fmt.Errorf("xsadapter: collection config %s: %w", name, err)
	}
	return cfg, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("xsadapter: begin delete collection: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection_name = ?`, name); err != nil {
		return fmt.Errorf("xsadapter: delete chunks for %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("xsadapter: delete collection %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("xsadapter: commit delete collection: %w", err)
	}

	s.mu.Lock()
	delete(s.graphs, name)
	s.mu.Unlock()
	for _, suffix := range []string{".hnsw", ".hnsw.meta"} {
		_ = os.Remove(filepath.Join(s.dataPath, name+suffix))
	}
	return nil
}

func (s *Store) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chunks WHERE collection_name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("xsadapter: count %s: %w", name, err)
	}
	return n, nil
}

func (s *Store) Add(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error {
	return s.upsert(ctx, name, ids, docs, metadatas, embeddings)
}

func (s *Store) Update(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error {
	return s.upsert(ctx, name, ids, docs, metadatas, embeddings)
}

func (s *Store) upsert(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error {
	if len(ids) != len(docs) || len(ids) != len(metadatas) || (embeddings != nil && len(ids) != len(embeddings)) {
		return fmt.Errorf("xsadapter: ids/docs/metadatas/embeddings length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}

	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("xsadapter: begin upsert: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		metaJSON, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("xsadapter: marshal metadata for %s: %w", id, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (collection_name, id, content, metadata_json) VALUES (?, ?, ?, ?)
			 ON CONFLICT(collection_name, id) DO UPDATE SET content=excluded.content, metadata_json=excluded.metadata_json`,
			name, id, docs[i], string(metaJSON))
		if err != nil {
			return fmt.Errorf("xsadapter: upsert chunk %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("xsadapter: commit upsert: %w", err)
	}

	if embeddings != nil {
		g, err := s.graphFor(name)
		if err != nil {
			return err
		}
		g.upsertVectors(ids, embeddings)
		if err := s.saveGraph(name, g); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	query, args, err := sqlx.In(`DELETE FROM chunks WHERE collection_name = ? AND id IN (?)`, name, ids)
	if err != nil {
		return fmt.Errorf("xsadapter: build delete query: %w", err)
	}
	query = s.db.Rebind(query)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("xsadapter: delete chunks: %w", err)
	}

	g, err := s.graphFor(name)
	if err != nil {
		return err
	}
	g.deleteVectors(ids)
	return s.saveGraph(name, g)
}

func (s *Store) Get(ctx context.Context, name string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, content, metadata_json FROM chunks WHERE collection_name = ? AND id IN (?)`, name, ids)
	if err != nil {
		return nil, fmt.Errorf("xsadapter: build get query: %w", err)
	}
	query = s.db.Rebind(query)

	var rows []struct {
		ID           string `db:"id"`
		Content      string `db:"content"`
		MetadataJSON string `db:"metadata_json"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("xsadapter: get chunks: %w", err)
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		var meta map[string]string
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err != nil {
			return nil, fmt.Errorf("xsadapter: unmarshal metadata for %s: %w", r.ID, err)
		}
		records[i] = Record{ID: r.ID, Content: r.Content, Metadata: meta}
	}
	return records, nil
}

func (s *Store) ListIDsWithMetadata(ctx context.Context, name string) ([]Record, error) {
	var rows []struct {
		ID           string `db:"id"`
		Content      string `db:"content"`
		MetadataJSON string `db:"metadata_json"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, content, metadata_json FROM chunks WHERE collection_name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("xsadapter: list ids for %s: %w", name, err)
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		var meta map[string]string
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err != nil {
			return nil, fmt.Errorf("xsadapter: unmarshal metadata for %s: %w", r.ID, err)
		}
		records[i] = Record{ID: r.ID, Content: r.Content, Metadata: meta}
	}
	return records, nil
}

func newCollectionGraph() *collectionGraph {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.Ml = 0.25
	return &collectionGraph{
		graph:  g,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

func (g *collectionGraph) upsertVectors(ids []string, vectors [][]float32) {
	for i, id := range ids {
		if existingKey, ok := g.idMap[id]; ok {
			delete(g.keyMap, existingKey)
			delete(g.idMap, id)
		}
		key := g.nextKey
		g.nextKey++
		g.graph.Add(hnsw.MakeNode(key, vectors[i]))
		g.idMap[id] = key
		g.keyMap[key] = id
	}
}

func (g *collectionGraph) deleteVectors(ids []string) {
	for _, id := range ids {
		if key, ok := g.idMap[id]; ok {
			delete(g.keyMap, key)
			delete(g.idMap, id)
		}
	}
}

func (s *Store) graphFor(name string) (*collectionGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.graphs[name]; ok {
		return g, nil
	}

	g := newCollectionGraph()
	if err := s.loadGraph(name, g); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	s.graphs[name] = g
	return g, nil
}

func (s *Store) saveGraph(name string, g *collectionGraph) error {
	indexPath := filepath.Join(s.dataPath, name+".hnsw")
	tmpPath := indexPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("xsadapter: create graph file: %w", err)
	}
	if err := g.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("xsadapter: export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("xsadapter: close graph file: %w", err)
	}
	if err := os.Rename(tmpPath, indexPath); err != nil {
		return fmt.Errorf("xsadapter: rename graph file: %w", err)
	}

	metaPath := indexPath + ".meta"
	metaTmp := metaPath + ".tmp"
	mf, err := os.Create(metaTmp)
	if err != nil {
		return fmt.Errorf("xsadapter: create graph metadata: %w", err)
	}
	meta := graphMetadata{IDMap: g.idMap, NextKey: g.nextKey}
	if err := gob.NewEncoder(mf).Encode(meta); err != nil {
		mf.Close()
		os.Remove(metaTmp)
		return fmt.Errorf("xsadapter: encode graph metadata: %w", err)
	}
	if err := mf.Close(); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("xsadapter: close graph metadata: %w", err)
	}
	return os.Rename(metaTmp, metaPath)
}

func (s *Store) loadGraph(name string, g *collectionGraph) error {
	metaPath := filepath.Join(s.dataPath, name+".hnsw.meta")
	mf, err := os.Open(metaPath)
	if err != nil {
		return err
	}
	defer mf.Close()

	var meta graphMetadata
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return fmt.Errorf("xsadapter: decode graph metadata: %w", err)
	}
	g.idMap = meta.IDMap
	g.nextKey = meta.NextKey
	g.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		g.keyMap[key] = id
	}

	indexPath := filepath.Join(s.dataPath, name+".hnsw")
	f, err := os.Open(indexPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	if err := g.graph.Import(reader); err != nil {
		return fmt.Errorf("xsadapter: import graph: %w", err)
	}
	return nil
}

var _ XS = (*Store)(nil)
