package pg

// schemaSql creates the engine's tables and indexes, idempotently.
// All timestamps are TIMESTAMP(3), so engine times must be truncated to millis.
const schemaSql = `
CREATE TABLE IF NOT EXISTS flowchart (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	definition BYTEA NOT NULL,
	created_at TIMESTAMP(3) NOT NULL
);

CREATE TABLE IF NOT EXISTS process (
	id           TEXT PRIMARY KEY,
	flowchart_id TEXT NOT NULL,

	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,

	parent_process_id           TEXT NOT NULL DEFAULT '',
	parent_process_flow_node_id TEXT NOT NULL DEFAULT '',
	root_process_id             TEXT NOT NULL DEFAULT '',

	status SMALLINT NOT NULL,

	variables        JSONB,
	created_entities JSONB,

	assigned_user_id TEXT NOT NULL DEFAULT '',
	team_ids         TEXT[],

	error_code    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',

	created_at  TIMESTAMP(3) NOT NULL,
	modified_at TIMESTAMP(3) NOT NULL,
	ended_at    TIMESTAMP(3)
);

CREATE INDEX IF NOT EXISTS process_target ON process (target_type, target_id);
CREATE INDEX IF NOT EXISTS process_parent ON process (parent_process_id) WHERE parent_process_id <> '';

CREATE TABLE IF NOT EXISTS flow_node (
	id           TEXT PRIMARY KEY,
	process_id   TEXT NOT NULL,
	flowchart_id TEXT NOT NULL,

	element_id   TEXT NOT NULL,
	element_type SMALLINT NOT NULL,

	previous_flow_node_id           TEXT NOT NULL DEFAULT '',
	previous_flow_node_element_type SMALLINT NOT NULL DEFAULT 0,

	divergent_flow_node_id TEXT NOT NULL DEFAULT '',

	status SMALLINT NOT NULL,

	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,

	element JSONB NOT NULL,
	data    JSONB NOT NULL,

	created_at   TIMESTAMP(3) NOT NULL,
	processed_at TIMESTAMP(3)
);

CREATE INDEX IF NOT EXISTS flow_node_process  ON flow_node (process_id, status);
CREATE INDEX IF NOT EXISTS flow_node_previous ON flow_node (previous_flow_node_id) WHERE previous_flow_node_id <> '';
CREATE INDEX IF NOT EXISTS flow_node_join     ON flow_node (process_id, element_id, divergent_flow_node_id);
CREATE INDEX IF NOT EXISTS flow_node_pending  ON flow_node (element_type) WHERE status = 2;

CREATE TABLE IF NOT EXISTS signal_subscription (
	id           TEXT PRIMARY KEY,
	signal_name  TEXT NOT NULL,
	flow_node_id TEXT NOT NULL,
	process_id   TEXT NOT NULL,
	created_at   TIMESTAMP(3) NOT NULL
);

CREATE INDEX IF NOT EXISTS signal_subscription_name      ON signal_subscription (signal_name);
CREATE INDEX IF NOT EXISTS signal_subscription_flow_node ON signal_subscription (flow_node_id);
`
