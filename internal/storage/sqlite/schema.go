package sqlite

const schema = `
-- Agent versions (append-only; based_on links optimization lineage)
CREATE TABLE IF NOT EXISTS agents (
    key TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    temperature REAL NOT NULL DEFAULT 0,
    max_tokens INTEGER NOT NULL DEFAULT 0,
    prompt_version TEXT NOT NULL,
    based_on TEXT NOT NULL DEFAULT '',
    iteration INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_agents_based_on ON agents(based_on);
CREATE INDEX IF NOT EXISTS idx_agents_prompt_version ON agents(prompt_version);

-- Prompt versions (append-only; parent_version links lineage)
CREATE TABLE IF NOT EXISTS prompts (
    version TEXT PRIMARY KEY,
    template TEXT NOT NULL,
    parent_version TEXT NOT NULL DEFAULT '',
    applied_techniques TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_prompts_parent ON prompts(parent_version);

-- Labeled evaluation dataset
CREATE TABLE IF NOT EXISTS eval_records (
    id TEXT PRIMARY KEY,
    input TEXT NOT NULL,
    expected_output TEXT NOT NULL DEFAULT '',
    corrected_score REAL,
    facts TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Optimization run summaries
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    agent_key TEXT NOT NULL,
    final_agent_key TEXT NOT NULL DEFAULT '',
    final_score REAL NOT NULL DEFAULT 0,
    total_improvement REAL NOT NULL DEFAULT 0,
    iterations INTEGER NOT NULL DEFAULT 0,
    target_reached INTEGER NOT NULL DEFAULT 0,
    stopped_reason TEXT NOT NULL DEFAULT '',
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_agent ON runs(agent_key);

-- Per-iteration history (append-only)
CREATE TABLE IF NOT EXISTS run_steps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    agent_key TEXT NOT NULL,
    prompt_version TEXT NOT NULL,
    score REAL NOT NULL,
    improvement REAL NOT NULL DEFAULT 0,
    feedback_summary TEXT NOT NULL DEFAULT '',
    applied_techniques TEXT NOT NULL DEFAULT '[]',
    expected_improvement REAL NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id);

-- Evaluation assessments
CREATE TABLE IF NOT EXISTS assessments (
    id TEXT PRIMARY KEY,
    agent_key TEXT NOT NULL,
    prompt_version TEXT NOT NULL,
    strategy TEXT NOT NULL,
    score REAL NOT NULL,
    metrics TEXT NOT NULL DEFAULT '{}',
    feedback_summary TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assessments_agent ON assessments(agent_key);

-- Config key-value store
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
