package config

import "errors"

var (
	// ErrParsingEnvs is returned when environment variables cannot be parsed.
	ErrParsingEnvs = errors.New("error parsing environment variables")
	// ErrConfigFileNotFound is returned when the JSON config path points to a missing file.
	ErrConfigFileNotFound = errors.New("config file not found")
	// ErrReadingConfigFile is returned when the JSON config file cannot be read.
	ErrReadingConfigFile = errors.New("error reading config file")
	// ErrParsingConfigFile is returned when the JSON config file contains invalid JSON.
	ErrParsingConfigFile = errors.New("error parsing config file")
	// ErrParsingDuration is returned when a JSON duration value is neither a number nor a duration string.
	ErrParsingDuration = errors.New("error parsing duration")
	// ErrMergingConfigs is returned when configuration sources cannot be merged.
	ErrMergingConfigs = errors.New("error merging configs")

	// ErrInvalidRemoteConfigs is returned when remote store settings fail validation.
	ErrInvalidRemoteConfigs = errors.New("invalid remote configs")
	// ErrInvalidEngineConfigs is returned when engine settings fail validation.
	ErrInvalidEngineConfigs = errors.New("invalid engine configs")
	// ErrInvalidMonitorConfigs is returned when network monitor settings fail validation.
	ErrInvalidMonitorConfigs = errors.New("invalid monitor configs")
	// ErrInvalidServerConfigs is returned when control API server settings fail validation.
	ErrInvalidServerConfigs = errors.New("invalid server configs")
)
