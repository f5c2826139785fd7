package mcp

// ServerConfig holds the launch parameters for a single stdio tool server.
type ServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}
