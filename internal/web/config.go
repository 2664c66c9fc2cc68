package web

// Config holds web server configuration
type Config struct {
	Server ServerConfig
}

// ServerConfig holds listener settings
type ServerConfig struct {
	Host string
	Port int
}
