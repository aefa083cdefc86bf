package store

const schema = `
CREATE TABLE IF NOT EXISTS macros (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    event_count INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    source TEXT
);

CREATE TABLE IF NOT EXISTS macro_events (
    macro_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('move','click','scroll')),
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    button TEXT,
    pressed BOOLEAN,
    dx INTEGER,
    dy INTEGER,
    delay REAL NOT NULL,
    PRIMARY KEY (macro_id, seq),
    FOREIGN KEY (macro_id) REFERENCES macros(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_macros_created ON macros(created_at);
`
