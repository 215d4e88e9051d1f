package syncmanager

// documentsSchemaDDL creates the two versioned tables the engine owns inside
// the VS (§6 "VS versioned tables"). initialize_from_xs runs this when the
// schema is absent; the engine never exposes these tables to callers.
const documentsSchemaDDL = `
CREATE TABLE IF NOT EXISTS collections (
	collection_name TEXT PRIMARY KEY,
	display_name TEXT,
	description TEXT,
	embedding_model TEXT,
	chunk_size INTEGER,
	chunk_overlap INTEGER,
	created_at TEXT,
	updated_at TEXT,
	document_count INTEGER,
	metadata_json TEXT
);
CREATE TABLE IF NOT EXISTS documents (
	doc_id TEXT,
	collection_name TEXT,
	content TEXT,
	content_hash TEXT,
	title TEXT,
	doc_type TEXT,
	metadata_json TEXT,
	created_at TEXT,
	updated_at TEXT,
	PRIMARY KEY (doc_id, collection_name),
	FOREIGN KEY (collection_name) REFERENCES collections(collection_name)
);
`
