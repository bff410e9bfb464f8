package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    timeslot INTEGER NOT NULL,
    placed_timeslot INTEGER NOT NULL,
    mwh REAL NOT NULL,
    limit_price REAL,
    strategy TEXT NOT NULL,
    placed_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_orders_timeslot ON orders(timeslot);
CREATE INDEX IF NOT EXISTS idx_orders_strategy ON orders(strategy);

CREATE TABLE IF NOT EXISTS usage_predictions (
    timeslot INTEGER NOT NULL,
    lead INTEGER NOT NULL,
    kwh REAL NOT NULL,
    recorded_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (timeslot, lead)
);

CREATE TABLE IF NOT EXISTS actual_usage (
    timeslot INTEGER PRIMARY KEY,
    kwh REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS dp_solutions (
    timeslot INTEGER NOT NULL,
    stage INTEGER NOT NULL,
    value REAL NOT NULL,
    action TEXT NOT NULL,
    price REAL NOT NULL,
    PRIMARY KEY (timeslot, stage)
);
`
