package database

// schema 运行记录表结构，按顺序执行
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vns_runs (
		id             UUID PRIMARY KEY,
		month          VARCHAR(6) NOT NULL,
		seed           BIGINT NOT NULL,
		kmax           INTEGER NOT NULL,
		max_iterations INTEGER NOT NULL,
		start_kind     VARCHAR(16) NOT NULL,
		initial_cost   INTEGER NOT NULL,
		best_cost      INTEGER NOT NULL,
		improvements   INTEGER NOT NULL DEFAULT 0,
		moves          INTEGER NOT NULL DEFAULT 0,
		duration_ms    BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vns_runs_month ON vns_runs (month, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS vns_run_assignments (
		run_id UUID NOT NULL REFERENCES vns_runs (id) ON DELETE CASCADE,
		person VARCHAR(128) NOT NULL,
		slot   VARCHAR(8) NOT NULL,
		PRIMARY KEY (run_id, person, slot)
	)`,
}
