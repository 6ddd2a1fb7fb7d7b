package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, model string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		model:     model,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath string, autoMigrate bool) *Repository {
	return &Repository{
		backend:     backend,
		sqlitePath:  sqlitePath,
		autoMigrate: autoMigrate,
	}
}

// NewRulesForTest creates a Rules config for testing purposes
func NewRulesForTest(path string) *Rules {
	return &Rules{path: path}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewTrialsForTest creates a Trials config for testing purposes
func NewTrialsForTest(baseURL string, timeout, cacheTTL time.Duration) *Trials {
	return &Trials{baseURL: baseURL, timeout: timeout, cacheTTL: cacheTTL}
}
