package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/repository"
	"github.com/All-Khwarizmi/nature-quest/internal/reward"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

// defaultOnboardingQuestID is the fixed quest every first submission
// completes. It must exist in the quest store.
const defaultOnboardingQuestID = "8e03aa6d-baf1-413e-8243-3487c64ee95d"

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Chain    reward.Config     `yaml:"chain"`
	Quest    QuestConfig       `yaml:"quest"`
	Auth     AuthConfig        `yaml:"auth"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type QuestConfig struct {
	OnboardingQuestID string        `yaml:"onboardingQuestId"`
	ProcessTimeout    time.Duration `yaml:"processTimeout"`
	GenerateInterval  time.Duration `yaml:"generateInterval"`
}

type AuthConfig struct {
	AdminAddresses []string `yaml:"adminAddresses"`
	DebugMode      bool     `yaml:"debugMode"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.SetDefault("quest.onboardingQuestId", defaultOnboardingQuestID)
	viper.SetDefault("quest.processTimeout", 30*time.Second)
	viper.SetDefault("quest.generateInterval", 6*time.Hour)
	viper.SetDefault("chain.timeout", 3*time.Second)
	viper.SetDefault("logLevel", "info")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
