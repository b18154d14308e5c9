package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/xayanetwork/chi-claim-service/db"
	"github.com/xayanetwork/chi-claim-service/etherman"
	"github.com/xayanetwork/chi-claim-service/log"
	"github.com/xayanetwork/chi-claim-service/metrics"
	"github.com/xayanetwork/chi-claim-service/server"
)

// Config struct
type Config struct {
	Log         log.Config
	Database    db.Config
	ClaimServer server.Config
	Metrics     metrics.Config
	Etherman    etherman.Config
	NetworkConfig
}

// Load loads the configuration
func Load(configFilePath string, network string) (*Config, error) {
	var cfg Config
	viper.SetConfigType("toml")

	err := viper.ReadConfig(bytes.NewBuffer([]byte(DefaultValues)))
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return nil, err
	}
	if configFilePath != "" {
		dirName, fileName := filepath.Split(configFilePath)

		fileExtension := strings.TrimPrefix(filepath.Ext(fileName), ".")
		fileNameWithoutExtension := strings.TrimSuffix(fileName, "."+fileExtension)

		viper.AddConfigPath(dirName)
		viper.SetConfigName(fileNameWithoutExtension)
		viper.SetConfigType(fileExtension)
	}
	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("CHICLAIM")
	err = viper.ReadInConfig()
	if err != nil {
		_, ok := err.(viper.ConfigFileNotFoundError)
		if ok {
			log.Infof("config file not found")
		} else {
			log.Infof("error reading config file: %v", err)
			return nil, err
		}
	}

	err = viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return nil, err
	}

	if viper.IsSet("NetworkConfig") && network != "" {
		return nil, errors.New("network details are provided in the config file (the [NetworkConfig] section) and as a flag (the --network or -n). Configure it only once and try again please")
	}
	if !viper.IsSet("NetworkConfig") && network == "" {
		return nil, errors.New("network details are not provided. Please configure the [NetworkConfig] section in your config file, or provide a --network flag")
	}
	if !viper.IsSet("NetworkConfig") && network != "" {
		err = cfg.loadNetworkConfig(network)
		if err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}
