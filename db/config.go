package db

// Config struct
type Config struct {
	// Database kind ("postgres" is the only registered one)
	Database string `mapstructure:"Database"`

	// Name of the database
	Name string `mapstructure:"Name"`

	// User name
	User string `mapstructure:"User"`

	// Password of the user
	Password string `mapstructure:"Password"`

	// Host address
	Host string `mapstructure:"Host"`

	// Port Number
	Port string `mapstructure:"Port"`

	// MaxConns is the maximum number of connections in the pool
	MaxConns int `mapstructure:"MaxConns"`
}
