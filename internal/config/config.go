package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ccm/internal/apperr"
	"ccm/internal/params"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string
	LogDir   string
	CacheDir string

	Simulations    int
	MaxSimulations int
	CurrentYear    int
	// Seed is the base random seed; 0 seeds from the clock per request.
	Seed uint64

	ParametersFile string
	ProjectsFile   string

	HTTPAddr    string
	FrontEndURL string

	YearsCreditMaxIterations int
	PoolCacheSize            int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	cfg := &AppConfig{
		DataPath:                 dataPath,
		LogDir:                   logDir,
		CacheDir:                 cacheDir,
		ParametersFile:           getEnv("CCM_PARAMETERS_FILE", ""),
		ProjectsFile:             getEnv("CCM_PROJECTS_FILE", ""),
		HTTPAddr:                 getEnv("CCM_HTTP_ADDR", ":8000"),
		FrontEndURL:              getEnv("CCM_FRONT_END_URL", ""),
		Simulations:              getEnvInt("CCM_SIMULATIONS", params.DefaultSimulations),
		MaxSimulations:           getEnvInt("CCM_MAX_SIMULATIONS", 1_000_000),
		CurrentYear:              getEnvInt("CCM_CURRENT_YEAR", params.DefaultCurrentYear),
		YearsCreditMaxIterations: getEnvInt("CCM_YEARS_CREDIT_MAX_ITERATIONS", 10_000),
		PoolCacheSize:            getEnvInt("CCM_POOL_CACHE_SIZE", 256),
	}
	if seed, err := strconv.ParseUint(getEnv("CCM_SEED", "0"), 10, 64); err == nil {
		cfg.Seed = seed
	} else {
		return nil, apperr.ConfigInvalid("CCM_SEED must be an unsigned integer")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.MaxSimulations <= 0 {
		return apperr.ConfigInvalid("CCM_MAX_SIMULATIONS must be positive")
	}
	if c.Simulations <= 0 || c.Simulations > c.MaxSimulations {
		return apperr.ConfigInvalid("CCM_SIMULATIONS must be in (0, CCM_MAX_SIMULATIONS]")
	}
	if c.YearsCreditMaxIterations <= 0 {
		return apperr.ConfigInvalid("CCM_YEARS_CREDIT_MAX_ITERATIONS must be positive")
	}
	if c.PoolCacheSize <= 0 {
		return apperr.ConfigInvalid("CCM_POOL_CACHE_SIZE must be positive")
	}
	return nil
}

// Parameters returns the base parameter tree: the defaults, overlaid with
// the parameters file when one is configured, then the configured
// simulation count and anchor year.
func (c *AppConfig) Parameters() (*params.Parameters, error) {
	p := params.Default()
	if c.ParametersFile != "" {
		loaded, err := params.Load(c.ParametersFile)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	if c.ParametersFile == "" || os.Getenv("CCM_SIMULATIONS") != "" {
		p.Simulations = c.Simulations
	}
	if c.ParametersFile == "" || os.Getenv("CCM_CURRENT_YEAR") != "" {
		p.CurrentYear = c.CurrentYear
	}
	if err := c.CheckSimulations(p.Simulations); err != nil {
		return nil, err
	}
	return p, p.Validate()
}

// CheckSimulations bounds a requested simulation count.
func (c *AppConfig) CheckSimulations(n int) error {
	if n <= 0 || n > c.MaxSimulations {
		return apperr.Validation("simulations must be in (0, %d], got %d", c.MaxSimulations, n)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer configuration value")
	}
	return fallback
}
