package models

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

const (
	EnvelopeVersion = "1.0"

	CollectionPrijemi  = "prijemi"
	CollectionPonude   = "ponude"
	CollectionStavke   = "stavke"
	CollectionSettings = "settings"

	// TimestampLayout matches the ISO-8601 form the UI writes (UTC, millisecond precision).
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var ErrInvalidBackupFormat = errors.New("invalid backup format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BackupCollections is the fixed export and restore order.
var BackupCollections = []string{CollectionPrijemi, CollectionPonude, CollectionStavke, CollectionSettings}

type EnvelopeData struct {
	Prijemi  []Document `json:"prijemi"`
	Ponude   []Document `json:"ponude"`
	Stavke   []Document `json:"stavke"`
	Settings Document   `json:"settings,omitempty"`
}

type EnvelopeMetadata struct {
	PrijemiCount int      `json:"prijemiCount"`
	PonudeCount  int      `json:"ponudeCount"`
	StavkeCount  int      `json:"stavkeCount"`
	BackupSize   int      `json:"backupSize"`
	Collections  []string `json:"collections"`
}

// Envelope is one full backup. Data is a pointer so that a file without a
// "data" member can be told apart from an empty backup.
type Envelope struct {
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	AppName   string            `json:"appName,omitempty"`
	Data      *EnvelopeData     `json:"data"`
	Metadata  *EnvelopeMetadata `json:"metadata,omitempty"`
}

// Reduced returns the emergency variant of the envelope: the three domain
// collections only, without settings, app name or metadata.
func (e *Envelope) Reduced() *Envelope {
	reduced := &Envelope{
		Version:   e.Version,
		Timestamp: e.Timestamp,
		Data:      &EnvelopeData{},
	}
	if e.Data != nil {
		reduced.Data.Prijemi = e.Data.Prijemi
		reduced.Data.Ponude = e.Data.Ponude
		reduced.Data.Stavke = e.Data.Stavke
	}
	return reduced
}

// Validate checks the minimum shape required before a restore may write anything.
func (e *Envelope) Validate() error {
	if e == nil || e.Data == nil {
		return ErrInvalidBackupFormat
	}
	return nil
}

// MarshalIndentWithBOM renders the envelope the way it is offered for download.
func (e *Envelope) MarshalIndentWithBOM() ([]byte, error) {
	body, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(utf8BOM)+len(body))
	out = append(out, utf8BOM...)
	return append(out, body...), nil
}

// ParseEnvelope decodes a backup file. A leading BOM is tolerated and numbers
// are kept as json.Number so large integers survive a round trip.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackupFormat, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
