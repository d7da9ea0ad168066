package store

// SQLiteSchema mirrors the hosted tables closely enough for local runs and
// tests. Hosted deployments own their own schema.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    device_id   TEXT,
    location    TEXT,
    summary     TEXT,
    ended_at    TEXT,
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS identities (
    id                  TEXT PRIMARY KEY,
    name                TEXT,
    relationship_status TEXT,
    linkedin_url        TEXT,
    metadata            TEXT NOT NULL DEFAULT '{}',
    created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS events (
    id                  TEXT PRIMARY KEY,
    type                TEXT NOT NULL,
    content             TEXT NOT NULL,
    session_id          TEXT REFERENCES sessions(id),
    related_identity_id TEXT REFERENCES identities(id),
    created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_events_identity ON events(related_identity_id, type);
`
