package postgresql

// migrations returns the ordered schema migrations for the flowd database.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				variables JSONB NOT NULL DEFAULT '{}',
				metadata JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL,
				status TEXT NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				input_data JSONB NOT NULL DEFAULT '{}',
				output_data JSONB NOT NULL DEFAULT '{}',
				node_results JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT '',
				diagnostics JSONB NOT NULL DEFAULT '[]'
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow_id ON executions (workflow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_status ON executions (status);
		`,
	}
}
