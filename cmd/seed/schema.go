package main

// schemaSQL creates the tables the server reads. Every statement is
// idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sys_org (
	id         BIGSERIAL PRIMARY KEY,
	parent_id  BIGINT REFERENCES sys_org (id),
	name       TEXT    NOT NULL,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE OR REPLACE FUNCTION notify_sys_org_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('sys_org_changed', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS sys_org_changed ON sys_org;
CREATE TRIGGER sys_org_changed
	AFTER INSERT OR UPDATE OR DELETE ON sys_org
	FOR EACH STATEMENT EXECUTE FUNCTION notify_sys_org_changed();

CREATE TABLE IF NOT EXISTS sys_role (
	id             BIGSERIAL PRIMARY KEY,
	code           TEXT     NOT NULL UNIQUE,
	name           TEXT     NOT NULL,
	data_scope     SMALLINT NOT NULL,
	custom_org_ids TEXT,
	enabled        BOOLEAN  NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS sys_user (
	id                BIGSERIAL PRIMARY KEY,
	user_name         TEXT        NOT NULL UNIQUE,
	nick_name         TEXT        NOT NULL DEFAULT '',
	email             TEXT        NOT NULL DEFAULT '',
	phone             TEXT        NOT NULL DEFAULT '',
	status            SMALLINT    NOT NULL DEFAULT 1,
	password_hash     TEXT        NOT NULL DEFAULT '',
	created_user_id   BIGINT      NOT NULL DEFAULT 0,
	created_user_name TEXT        NOT NULL DEFAULT '',
	created_time      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_time      TIMESTAMPTZ NOT NULL DEFAULT now(),
	org_id            BIGINT      NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS sys_user_org_id_idx ON sys_user (org_id);
CREATE INDEX IF NOT EXISTS sys_user_created_user_id_idx ON sys_user (created_user_id);

CREATE TABLE IF NOT EXISTS sys_user_role (
	user_id BIGINT NOT NULL REFERENCES sys_user (id) ON DELETE CASCADE,
	role_id BIGINT NOT NULL REFERENCES sys_role (id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, role_id)
);

CREATE TABLE IF NOT EXISTS sys_menu (
	id    BIGSERIAL PRIMARY KEY,
	path  TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sys_operation_log (
	id                    UUID PRIMARY KEY,
	created_time          TIMESTAMPTZ NOT NULL,
	user_id               BIGINT      NOT NULL DEFAULT 0,
	user_name             TEXT        NOT NULL DEFAULT '',
	path                  TEXT        NOT NULL DEFAULT '',
	action                TEXT        NOT NULL,
	description           TEXT        NOT NULL DEFAULT '',
	operation_params      TEXT        NOT NULL DEFAULT '',
	operation_params_zstd BYTEA,
	client_ip             TEXT        NOT NULL DEFAULT '',
	client_device         TEXT        NOT NULL DEFAULT '',
	outcome               TEXT        NOT NULL,
	failure_reason        TEXT        NOT NULL DEFAULT '',
	duration_ms           BIGINT      NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS sys_operation_log_created_time_idx ON sys_operation_log (created_time DESC);

CREATE TABLE IF NOT EXISTS sys_log (
	id           BIGSERIAL PRIMARY KEY,
	created_time TIMESTAMPTZ  NOT NULL,
	log_level    VARCHAR(50)  NOT NULL,
	category     VARCHAR(200) NOT NULL DEFAULT '',
	message      VARCHAR(2000) NOT NULL DEFAULT '',
	exception    VARCHAR(4000) NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS sys_log_created_time_idx ON sys_log (created_time DESC);
`
