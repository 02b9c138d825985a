package config

import (
	"fmt"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validatePostgres(&c.Postgres)...)
	errors = append(errors, validateCentralAPI(&c.CentralAPI)...)
	errors = append(errors, validateSubgraph(&c.Subgraph)...)
	errors = append(errors, validateHealthMonitor(&c.HealthMonitor)...)
	errors = append(errors, validateIngest(&c.Ingest)...)
	errors = append(errors, validateBaseline(&c.Baseline)...)
	errors = append(errors, validateScoring(&c.Scoring)...)
	errors = append(errors, validateDiscovery(&c.Discovery)...)
	errors = append(errors, validateMonitor(&c.Monitor)...)
	errors = append(errors, validateFeedback(&c.Feedback)...)
	errors = append(errors, validateOperatorHTTP(&c.OperatorHTTP)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validatePostgres(p *PostgresConfig) []ValidationError {
	var errors []ValidationError
	if p.Port < 1 || p.Port > 65535 {
		errors = append(errors, ValidationError{Field: "postgres.port", Message: fmt.Sprintf("must be between 1 and 65535, got %d", p.Port)})
	}
	if p.MaxConns < 1 {
		errors = append(errors, ValidationError{Field: "postgres.max_conns", Message: "must be at least 1"})
	}
	if p.MinConns < 0 || p.MinConns > p.MaxConns {
		errors = append(errors, ValidationError{Field: "postgres.min_conns", Message: "must be non-negative and not exceed max_conns"})
	}
	if p.HealthCheckPeriod < 1*time.Second {
		errors = append(errors, ValidationError{Field: "postgres.health_check_period", Message: "must be at least 1 second"})
	}
	return errors
}

func validateCentralAPI(ca *CentralAPIConfig) []ValidationError {
	var errors []ValidationError
	if ca.GammaAPIURL == "" {
		errors = append(errors, ValidationError{Field: "central_api.gamma_api_url", Message: "must not be empty"})
	}
	if ca.DataAPIURL == "" {
		errors = append(errors, ValidationError{Field: "central_api.data_api_url", Message: "must not be empty"})
	}
	if ca.PageSize < 1 {
		errors = append(errors, ValidationError{Field: "central_api.page_size", Message: "must be at least 1"})
	}
	if ca.RequestTimeout < 1*time.Second {
		errors = append(errors, ValidationError{Field: "central_api.request_timeout", Message: "must be at least 1 second"})
	}
	if ca.MaxRetries < 0 {
		errors = append(errors, ValidationError{Field: "central_api.max_retries", Message: "must be non-negative"})
	}
	return errors
}

func validateSubgraph(sg *SubgraphConfig) []ValidationError {
	var errors []ValidationError
	if sg.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "subgraph.endpoint", Message: "must not be empty"})
	}
	if sg.PageSize < 1 {
		errors = append(errors, ValidationError{Field: "subgraph.page_size", Message: "must be at least 1"})
	}
	if sg.MaxPageSize < sg.PageSize {
		errors = append(errors, ValidationError{Field: "subgraph.max_page_size", Message: "must be at least page_size"})
	}
	if sg.RequestTimeout < 1*time.Second {
		errors = append(errors, ValidationError{Field: "subgraph.request_timeout", Message: "must be at least 1 second"})
	}
	return errors
}

func validateHealthMonitor(hm *HealthMonitorConfig) []ValidationError {
	var errors []ValidationError
	if hm.WindowSize < 1 {
		errors = append(errors, ValidationError{Field: "health_monitor.window_size", Message: "must be at least 1"})
	}
	if hm.ProbeInterval < 1*time.Second {
		errors = append(errors, ValidationError{Field: "health_monitor.probe_interval", Message: "must be at least 1 second"})
	}
	if hm.FailureThreshold < 0 || hm.FailureThreshold > 1 {
		errors = append(errors, ValidationError{Field: "health_monitor.failure_threshold", Message: "must be between 0 and 1"})
	}
	return errors
}

func validateIngest(ic *IngestConfig) []ValidationError {
	var errors []ValidationError
	if ic.Workers < 0 {
		errors = append(errors, ValidationError{Field: "ingest.workers", Message: "must be non-negative"})
	}
	if ic.PollInterval < 1*time.Second {
		errors = append(errors, ValidationError{Field: "ingest.poll_interval", Message: "must be at least 1 second"})
	}
	return errors
}

func validateBaseline(bc *BaselineConfig) []ValidationError {
	var errors []ValidationError
	if bc.RecomputeInterval < 1*time.Minute {
		errors = append(errors, ValidationError{Field: "baseline.recompute_interval", Message: "must be at least 1 minute"})
	}
	if bc.MinSamples < 1 {
		errors = append(errors, ValidationError{Field: "baseline.min_samples", Message: "must be at least 1"})
	}
	return errors
}

func validateScoring(sc *ScoringConfig) []ValidationError {
	var errors []ValidationError
	if sc.TrinityThreshold < 0 {
		errors = append(errors, ValidationError{Field: "scoring.trinity_threshold", Message: "must be non-negative"})
	}
	if sc.TrinityBoost < 1 {
		errors = append(errors, ValidationError{Field: "scoring.trinity_boost", Message: "must be at least 1"})
	}
	return errors
}

func validateDiscovery(dc *DiscoveryConfig) []ValidationError {
	var errors []ValidationError
	if dc.MinAnomalyScore < 0 || dc.MinAnomalyScore > 1 {
		errors = append(errors, ValidationError{Field: "discovery.min_anomaly_score", Message: "must be between 0 and 1"})
	}
	if dc.MinInsiderProbability < 0 || dc.MinInsiderProbability > 1 {
		errors = append(errors, ValidationError{Field: "discovery.min_insider_probability", Message: "must be between 0 and 1"})
	}
	if dc.Interval < 1*time.Minute {
		errors = append(errors, ValidationError{Field: "discovery.interval", Message: "must be at least 1 minute"})
	}
	if dc.DefaultLimit < 1 {
		errors = append(errors, ValidationError{Field: "discovery.default_limit", Message: "must be at least 1"})
	}
	return errors
}

func validateMonitor(mc *MonitorConfig) []ValidationError {
	var errors []ValidationError
	if mc.PollInterval < 1*time.Second {
		errors = append(errors, ValidationError{Field: "monitor.poll_interval", Message: "must be at least 1 second"})
	}
	if mc.AnomalyThreshold < 0 || mc.AnomalyThreshold > 1 {
		errors = append(errors, ValidationError{Field: "monitor.anomaly_threshold", Message: "must be between 0 and 1"})
	}
	if mc.ProbabilityThreshold < 0 || mc.ProbabilityThreshold > 1 {
		errors = append(errors, ValidationError{Field: "monitor.probability_threshold", Message: "must be between 0 and 1"})
	}
	return errors
}

func validateFeedback(fc *FeedbackConfig) []ValidationError {
	var errors []ValidationError
	if fc.RescoreBatchSize < 1 {
		errors = append(errors, ValidationError{Field: "feedback.rescore_batch_size", Message: "must be at least 1"})
	}
	return errors
}

func validateOperatorHTTP(oc *OperatorHTTPConfig) []ValidationError {
	var errors []ValidationError
	if oc.Enabled && (oc.Port < 1 || oc.Port > 65535) {
		errors = append(errors, ValidationError{Field: "operator_http.port", Message: fmt.Sprintf("must be between 1 and 65535, got %d", oc.Port)})
	}
	return errors
}
