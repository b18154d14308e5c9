package metrics

// Config of the metrics HTTP server
type Config struct {
	Enabled bool   `mapstructure:"Enabled"`
	Port    string `mapstructure:"Port"`
}
