package types

import "errors"

// Config holds backend selection and ledger policy parameters.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// StrictSameType rejects equal timestamps for same-type event pairs
	// on a lot. The default (false) permits co-located instantaneous
	// events regardless of type.
	StrictSameType bool `json:"strict_same_type" yaml:"strict_same_type"`

	// SignificantVariancePct is the |variance %| above which a waste
	// analysis is flagged significant. Zero means the default (20).
	SignificantVariancePct float64 `json:"significant_variance_pct" yaml:"significant_variance_pct"`

	// ReasonRequiredPct is the per-edge |variance %| above which
	// finalizing a transformation requires a waste_reason. Zero means
	// the default (30).
	ReasonRequiredPct float64 `json:"reason_required_pct" yaml:"reason_required_pct"`

	// TraceMaxDepth caps recursion in trace walks. Zero means the
	// default (64).
	TraceMaxDepth int `json:"trace_max_depth" yaml:"trace_max_depth"`

	// WriteMaxRetries bounds internal retries of a conditional write
	// that lost to a concurrent modification. Zero means the default (3).
	WriteMaxRetries int `json:"write_max_retries" yaml:"write_max_retries"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Policy defaults.
const (
	DefaultSignificantVariancePct = 20.0
	DefaultReasonRequiredPct      = 30.0
	DefaultTraceMaxDepth          = 64
	DefaultWriteMaxRetries        = 3
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrThresholdNegative   = errors.New("variance thresholds must not be negative")
	ErrTraceDepthNegative  = errors.New("trace depth cap must not be negative")
	ErrWriteRetriesInvalid = errors.New("write retry count must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SignificantVariancePct < 0 || c.ReasonRequiredPct < 0 {
		return ErrThresholdNegative
	}
	if c.TraceMaxDepth < 0 {
		return ErrTraceDepthNegative
	}
	if c.WriteMaxRetries < 0 {
		return ErrWriteRetriesInvalid
	}
	return nil
}

// GetSignificantVariancePct returns the configured threshold or the default.
func (c Config) GetSignificantVariancePct() float64 {
	if c.SignificantVariancePct == 0 {
		return DefaultSignificantVariancePct
	}
	return c.SignificantVariancePct
}

// GetReasonRequiredPct returns the configured threshold or the default.
func (c Config) GetReasonRequiredPct() float64 {
	if c.ReasonRequiredPct == 0 {
		return DefaultReasonRequiredPct
	}
	return c.ReasonRequiredPct
}

// GetTraceMaxDepth returns the configured depth cap or the default.
func (c Config) GetTraceMaxDepth() int {
	if c.TraceMaxDepth == 0 {
		return DefaultTraceMaxDepth
	}
	return c.TraceMaxDepth
}

// GetWriteMaxRetries returns the configured retry bound or the default.
func (c Config) GetWriteMaxRetries() int {
	if c.WriteMaxRetries == 0 {
		return DefaultWriteMaxRetries
	}
	return c.WriteMaxRetries
}
