package movietalk

import "github.com/spf13/viper"

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type ImportConfig struct {
	Channel string `mapstructure:"channel"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	// Data is the directory holding index.json, subtitles/ and the
	// edited/ overlay.
	Data   string       `mapstructure:"data"`
	Import ImportConfig `mapstructure:"import"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
