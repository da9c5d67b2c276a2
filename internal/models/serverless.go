package models

import (
	"fmt"
	"strconv"
)

const (
	DefaultMemorySizeInMB = 4096
	DefaultMaxConcurrency = 1
	DefaultVariantName    = "mlops"

	memoryStepInMB = 1024
	minMemoryInMB  = 1024
	maxMemoryInMB  = 6144
	maxConcurrency = 200
)

// ServerlessConfig sizes the single production variant of a serverless endpoint.
type ServerlessConfig struct {
	VariantName    string
	MemorySizeInMB int32
	MaxConcurrency int32
}

func DefaultServerlessConfig() ServerlessConfig {
	return ServerlessConfig{
		VariantName:    DefaultVariantName,
		MemorySizeInMB: DefaultMemorySizeInMB,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

func (c ServerlessConfig) Validate() error {
	if c.VariantName == "" {
		return ErrorInvalidServerlessConfig("variant name is empty")
	}
	if c.MemorySizeInMB < minMemoryInMB || c.MemorySizeInMB > maxMemoryInMB || c.MemorySizeInMB%memoryStepInMB != 0 {
		return ErrorInvalidServerlessConfig(fmt.Sprintf("memory=%d must be %d-%d MB in %d MB steps",
			c.MemorySizeInMB, minMemoryInMB, maxMemoryInMB, memoryStepInMB))
	}
	if c.MaxConcurrency < 1 || c.MaxConcurrency > maxConcurrency {
		return ErrorInvalidServerlessConfig(fmt.Sprintf("concurrency=%d must be 1-%d", c.MaxConcurrency, maxConcurrency))
	}
	return nil
}

// ServerlessConfigFromEnv applies optional overrides read from the environment.
// Empty values keep the defaults.
func ServerlessConfigFromEnv(memorySizeInMB, concurrency string) (ServerlessConfig, error) {
	cfg := DefaultServerlessConfig()

	if memorySizeInMB != "" {
		v, err := strconv.ParseInt(memorySizeInMB, 10, 32)
		if err != nil {
			return cfg, ErrorInvalidServerlessConfig(fmt.Sprintf("memory=%q: %v", memorySizeInMB, err))
		}
		cfg.MemorySizeInMB = int32(v)
	}

	if concurrency != "" {
		v, err := strconv.ParseInt(concurrency, 10, 32)
		if err != nil {
			return cfg, ErrorInvalidServerlessConfig(fmt.Sprintf("concurrency=%q: %v", concurrency, err))
		}
		cfg.MaxConcurrency = int32(v)
	}

	return cfg, cfg.Validate()
}
