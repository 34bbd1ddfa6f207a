package baseline

// Schema contains the complete DDL for the baseline tables.
const Schema = `
-- Baselines: recorded document fingerprints, one per name
CREATE TABLE IF NOT EXISTS baselines (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    source     TEXT NOT NULL DEFAULT '',
    format     TEXT NOT NULL DEFAULT 'xml',
    algo       TEXT NOT NULL,
    key        TEXT NOT NULL,
    node_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_baselines_key ON baselines(key);
`
