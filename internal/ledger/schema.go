package ledger

const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	market_id TEXT NOT NULL,
	deal_id TEXT NOT NULL,
	status TEXT NOT NULL,
	direction TEXT NOT NULL,
	opening_price REAL NOT NULL,
	size REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	price_points TEXT NOT NULL,
	trailing_stop_rating INTEGER,
	opened_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_market ON positions(market_id, status);
CREATE INDEX IF NOT EXISTS idx_positions_deal ON positions(deal_id);
`

const PostgresSchema = `
CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	market_id TEXT NOT NULL,
	deal_id TEXT NOT NULL,
	status TEXT NOT NULL,
	direction TEXT NOT NULL,
	opening_price DOUBLE PRECISION NOT NULL,
	size DOUBLE PRECISION NOT NULL,
	stop_loss DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	price_points JSONB NOT NULL,
	trailing_stop_rating SMALLINT,
	opened_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_market ON positions(market_id, status);
CREATE INDEX IF NOT EXISTS idx_positions_deal ON positions(deal_id);
`

const columns = `id, source, market_id, deal_id, status, direction, opening_price, size,
	stop_loss, take_profit, price_points, trailing_stop_rating, opened_at, updated_at`
