package etherman

// Config represents the configuration of the etherman
type Config struct {
	// URL of the EVM node to send payout transactions through
	URL string `mapstructure:"URL"`

	// PrivateKeyPath is the path of the keystore file holding the key of
	// the pool account
	PrivateKeyPath string `mapstructure:"PrivateKeyPath"`

	// PrivateKeyPassword decrypts the keystore file
	PrivateKeyPassword string `mapstructure:"PrivateKeyPassword"`
}
