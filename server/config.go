package server

// Config struct
type Config struct {
	// Port is the TCP port the REST API listens on
	Port string `mapstructure:"Port"`

	// AdminAPIKey gates the administrator claim endpoint. An empty value
	// disables the endpoint entirely.
	AdminAPIKey string `mapstructure:"AdminAPIKey"`

	// ReadTimeoutSec and WriteTimeoutSec bound request handling
	ReadTimeoutSec  int `mapstructure:"ReadTimeoutSec"`
	WriteTimeoutSec int `mapstructure:"WriteTimeoutSec"`
}
