package store

// Schema is the DDL applied by Migrate on startup. It carries unique indexes on
// transaction_hash, condition_id, address, trade_id (scores), (category,
// metric), alert_id, batch_id, and a descending index on trade_timestamp
// for the monitor's recent-trade poll.
const Schema = `
CREATE TABLE IF NOT EXISTS markets (
	id               BIGSERIAL PRIMARY KEY,
	condition_id     TEXT NOT NULL UNIQUE,
	question         TEXT NOT NULL DEFAULT '',
	outcomes         JSONB NOT NULL DEFAULT '[]',
	outcome_prices   JSONB NOT NULL DEFAULT '[]',
	end_date         TIMESTAMPTZ,
	resolution_date  TIMESTAMPTZ,
	resolved_outcome TEXT,
	volume           NUMERIC(30,6) NOT NULL DEFAULT 0,
	volume_24h       NUMERIC(30,6) NOT NULL DEFAULT 0,
	liquidity        NUMERIC(30,6) NOT NULL DEFAULT 0,
	category         TEXT NOT NULL DEFAULT 'other',
	is_event_based   BOOLEAN NOT NULL DEFAULT false,
	is_active        BOOLEAN NOT NULL DEFAULT true,
	meta             JSONB NOT NULL DEFAULT '{}',
	last_synced_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wallets (
	address             TEXT PRIMARY KEY,
	total_trades        INTEGER NOT NULL DEFAULT 0,
	total_volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
	unique_markets      INTEGER NOT NULL DEFAULT 0,
	resolved_positions  INTEGER NOT NULL DEFAULT 0,
	wins                INTEGER NOT NULL DEFAULT 0,
	losses              INTEGER NOT NULL DEFAULT 0,
	win_rate            DOUBLE PRECISION,
	first_seen_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_aggregated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS trades (
	id                       BIGSERIAL PRIMARY KEY,
	transaction_hash         TEXT NOT NULL UNIQUE,
	market_id                BIGINT NOT NULL REFERENCES markets(id),
	wallet_address           TEXT NOT NULL REFERENCES wallets(address),
	condition_id             TEXT NOT NULL,
	side                     TEXT NOT NULL,
	outcome                  TEXT NOT NULL,
	outcome_index            INTEGER NOT NULL,
	size                     DOUBLE PRECISION NOT NULL,
	price                    DOUBLE PRECISION NOT NULL,
	usdc_size                DOUBLE PRECISION NOT NULL,
	trade_timestamp          TIMESTAMPTZ NOT NULL,
	hours_before_resolution  DOUBLE PRECISION,
	wallet_age_days          DOUBLE PRECISION,
	wallet_trade_count       INTEGER,
	price_extremity          DOUBLE PRECISION NOT NULL,
	was_correct              BOOLEAN,
	profit_loss              DOUBLE PRECISION,
	meta                     JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_trades_market_id ON trades(market_id);
CREATE INDEX IF NOT EXISTS idx_trades_wallet_address ON trades(wallet_address);
CREATE INDEX IF NOT EXISTS idx_trades_trade_timestamp_desc ON trades(trade_timestamp DESC);

CREATE TABLE IF NOT EXISTS baselines (
	id                   BIGSERIAL PRIMARY KEY,
	category             TEXT NOT NULL,
	metric               TEXT NOT NULL,
	normal_mean          DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_stddev        DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_median        DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_p75           DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_p90           DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_p95           DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_p99           DOUBLE PRECISION NOT NULL DEFAULT 0,
	normal_sample_count  INTEGER NOT NULL DEFAULT 0,
	insider_mean         DOUBLE PRECISION NOT NULL DEFAULT 0,
	insider_stddev       DOUBLE PRECISION NOT NULL DEFAULT 0,
	insider_sample_count INTEGER NOT NULL DEFAULT 0,
	separation_score     DOUBLE PRECISION,
	calculated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (category, metric)
);

CREATE TABLE IF NOT EXISTS trade_scores (
	id                            BIGSERIAL PRIMARY KEY,
	trade_id                      BIGINT NOT NULL UNIQUE REFERENCES trades(id),
	size_z_score                  DOUBLE PRECISION,
	usdc_size_z_score             DOUBLE PRECISION,
	timing_z_score                DOUBLE PRECISION,
	wallet_age_z_score            DOUBLE PRECISION,
	wallet_activity_z_score       DOUBLE PRECISION,
	price_extremity_z_score       DOUBLE PRECISION,
	position_concentration_z_score DOUBLE PRECISION,
	funding_proximity_z_score     DOUBLE PRECISION,
	anomaly_score                 DOUBLE PRECISION,
	insider_probability           DOUBLE PRECISION,
	trinity_pattern               BOOLEAN NOT NULL DEFAULT false,
	matched_patterns              JSONB NOT NULL DEFAULT '{}',
	severity                      TEXT NOT NULL DEFAULT 'none',
	scored_at                     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS patterns (
	id              BIGSERIAL PRIMARY KEY,
	pattern_name    TEXT NOT NULL UNIQUE,
	description     TEXT NOT NULL DEFAULT '',
	conditions      JSONB NOT NULL DEFAULT '{}',
	alert_threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
	true_positives  INTEGER NOT NULL DEFAULT 0,
	false_positives INTEGER NOT NULL DEFAULT 0,
	is_active       BOOLEAN NOT NULL DEFAULT true,
	validated_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS confirmed_insiders (
	id                  BIGSERIAL PRIMARY KEY,
	wallet_address      TEXT NOT NULL,
	condition_id        TEXT,
	trade_id            BIGINT REFERENCES trades(id),
	confidence_level    TEXT NOT NULL DEFAULT 'suspected',
	confirmation_source TEXT NOT NULL DEFAULT '',
	evidence            TEXT NOT NULL DEFAULT '',
	used_for_training   BOOLEAN NOT NULL DEFAULT false,
	training_weight     DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	confirmed_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_confirmed_insiders_wallet ON confirmed_insiders(wallet_address);

CREATE TABLE IF NOT EXISTS discovery_batches (
	batch_id          TEXT PRIMARY KEY,
	min_anomaly_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	categories        JSONB NOT NULL DEFAULT '[]',
	exclude_known     BOOLEAN NOT NULL DEFAULT true,
	candidate_count   INTEGER NOT NULL DEFAULT 0,
	total_evaluated   INTEGER NOT NULL DEFAULT 0,
	top_score         DOUBLE PRECISION,
	median_score      DOUBLE PRECISION,
	notes             TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS candidates (
	id                  BIGSERIAL PRIMARY KEY,
	batch_id            TEXT NOT NULL REFERENCES discovery_batches(batch_id),
	trade_id            BIGINT NOT NULL UNIQUE REFERENCES trades(id),
	score_id            BIGINT NOT NULL REFERENCES trade_scores(id),
	market_id           BIGINT NOT NULL REFERENCES markets(id),
	wallet_address      TEXT NOT NULL,
	discovery_rank      INTEGER NOT NULL DEFAULT 0,
	anomaly_score       DOUBLE PRECISION NOT NULL,
	insider_probability DOUBLE PRECISION,
	context             JSONB NOT NULL DEFAULT '{}',
	status              TEXT NOT NULL DEFAULT 'undiscovered',
	priority            TEXT NOT NULL DEFAULT 'low',
	assigned_to         TEXT,
	evidence            JSONB NOT NULL DEFAULT '[]',
	notes               JSONB NOT NULL DEFAULT '[]',
	resolution          TEXT,
	discovered_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
	id             BIGSERIAL PRIMARY KEY,
	alert_id       TEXT NOT NULL UNIQUE,
	type           TEXT NOT NULL,
	severity       TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	trade_id       BIGINT,
	wallet_address TEXT NOT NULL DEFAULT '',
	market_id      BIGINT,
	message        TEXT NOT NULL DEFAULT '',
	context        JSONB NOT NULL DEFAULT '{}',
	triggered_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
