package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".memtree"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for memtree settings.
const envPrefix = "MEMTREE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			PageSize: DefaultPageSize,
			Size:     DefaultMemorySize,
		},
		Tree: TreeConfig{
			AllocatedOnInsert: DefaultAllocatedOnInsert,
			VerifyEachStep:    DefaultVerifyEachStep,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint:    DefaultOTLPEndpoint,
			OTLPInsecure:    DefaultOTLPInsecure,
			MetricsAddr:     DefaultMetricsAddr,
			SampleRatio:     DefaultSampleRatio,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Stress: StressConfig{
			Ops:          DefaultStressOps,
			MaxLength:    DefaultStressMaxLength,
			AddressSpace: DefaultStressAddressSpace,
			VerifyEvery:  DefaultStressVerifyEvery,
			SampleEvery:  DefaultStressSampleEvery,
		},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("memory.page_size", DefaultPageSize)
	viperCfg.SetDefault("memory.size", DefaultMemorySize)

	viperCfg.SetDefault("tree.allocated_on_insert", DefaultAllocatedOnInsert)
	viperCfg.SetDefault("tree.verify_each_step", DefaultVerifyEachStep)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_addr", DefaultMetricsAddr)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.shutdown_timeout", DefaultShutdownTimeout)

	viperCfg.SetDefault("stress.ops", DefaultStressOps)
	viperCfg.SetDefault("stress.max_length", DefaultStressMaxLength)
	viperCfg.SetDefault("stress.address_space", DefaultStressAddressSpace)
	viperCfg.SetDefault("stress.verify_every", DefaultStressVerifyEvery)
	viperCfg.SetDefault("stress.sample_every", DefaultStressSampleEvery)
}
