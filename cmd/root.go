package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/flow"
	"github.com/spigell/hh-interviewer/internal/store"
)

const (
	app = "hh-interviewer"
)

type Config struct {
	Interview *engine.Config `mapstructure:"interview"`
	Store     *StoreConfig   `mapstructure:"store"`
	AI        *AIConfig      `mapstructure:"ai"`
}

type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	SessionTTL    time.Duration `mapstructure:"session-ttl"`
	ResumeWindow  time.Duration `mapstructure:"resume-window"`
	ArtifactTTL   time.Duration `mapstructure:"artifact-ttl"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
	Redis         *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	JudgeTimeout time.Duration `mapstructure:"judge-timeout"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey           string `mapstructure:"api-key"`
	APIKeyFile       string `mapstructure:"api-key-file"`
	Model            string `mapstructure:"model"`
	MaxRetries       int    `mapstructure:"max-retries"`
	MaxLogLength     int    `mapstructure:"max-log-length"`
	Tone             string `mapstructure:"tone"`
	Language         string `mapstructure:"language"`
	UserInstructions string `mapstructure:"user-instructions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer runs adaptive mock interviews with rubric scoring and follow-up questions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("store.redis.addr", "HH_INTERVIEWER_REDIS_ADDR"); err != nil {
		log.Fatalf("binding HH_INTERVIEWER_REDIS_ADDR environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("interview.round-type", flow.RoundDefault)
	viper.SetDefault("interview.max-questions", flow.DefaultMaxQuestions)
	viper.SetDefault("interview.max-follow-ups", engine.DefaultMaxFollowUps)
	viper.SetDefault("interview.follow-up-depth", engine.DefaultFollowUpDepth)
	viper.SetDefault("interview.llm-timeout", engine.DefaultLLMTimeout)

	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.session-ttl", store.DefaultSessionTTL)
	viper.SetDefault("store.resume-window", store.DefaultResumeWindow)
	viper.SetDefault("store.artifact-ttl", store.DefaultArtifactTTL)
	viper.SetDefault("store.sweep-interval", 10*time.Minute)
	viper.SetDefault("store.redis.addr", "localhost:6379")

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.judge-timeout", 20*time.Second)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicit or broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
