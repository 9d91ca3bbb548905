package domain

import (
	"time"
)

// Dialect selects the grammar used to read raw scan output.
type Dialect string

const (
	// DialectScan is the `iw dev <iface> scan` grammar, blocks start with "BSS <mac>".
	DialectScan Dialect = "scan"
	// DialectList is the `iwlist <iface> scan` grammar, blocks start with "Cell NN - Address: <mac>".
	DialectList Dialect = "list"
)

// Defaults applied to fields a block did not carry.
const (
	MissingSignalDBm    = -100.0
	UnknownFrequencyMHz = 0
)

// RawOutput is untouched command output plus the grammar it was produced in.
type RawOutput struct {
	Text      string
	Dialect   Dialect
	Command   string
	Interface string
}

// RawFieldBlock holds the fields extracted from one network block, still as text.
type RawFieldBlock struct {
	BSSID         string
	SSID          string
	HasSSID       bool
	Signal        string
	Frequency     string
	FrequencyGHz  bool // Frequency is expressed in GHz and needs x1000
	SecurityLines []string
}

// NormalizedFields is a typed, validated view of a RawFieldBlock.
type NormalizedFields struct {
	BSSID            string
	SSID             string
	Hidden           bool
	SignalDBm        float64
	FrequencyMHz     int
	Channel          *int
	Security         SecurityType
	SignalMissing    bool
	FrequencyMissing bool
}

// ScanStatus tracks a scan session lifecycle.
type ScanStatus string

const (
	ScanStarting  ScanStatus = "starting"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanCancelled ScanStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed || s == ScanCancelled
}

// ScanRequest is the inbound request to start an asynchronous scan.
type ScanRequest struct {
	Interface       string `json:"interface" validate:"required,iface"`
	DurationSeconds int    `json:"duration" validate:"min=1,max=60"`
}

// Timeout converts the request duration into a per-attempt timeout.
func (r ScanRequest) Timeout() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// ScanSession is the state of one scan held by the session store.
type ScanSession struct {
	ID           string              `json:"scan_id"`
	Interface    string              `json:"interface"`
	Status       ScanStatus          `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at,omitempty"`
	AccessPoints []AccessPointRecord `json:"access_points"`
	TotalCount   int                 `json:"total_count"`
	Duration     float64             `json:"scan_duration"`
	Error        string              `json:"error,omitempty"`
	FailureCause string              `json:"failure_cause,omitempty"`
}

// ScanEvent is published when a session changes state.
type ScanEvent struct {
	Type    string      `json:"type"`
	ScanID  string      `json:"scan_id"`
	Status  ScanStatus  `json:"status"`
	Session ScanSession `json:"session"`
}

// Event types emitted by the scan service.
const (
	EventScanStarted   = "scan_started"
	EventScanCompleted = "scan_completed"
	EventScanFailed    = "scan_failed"
	EventScanCancelled = "scan_cancelled"
)
