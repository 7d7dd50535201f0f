package domain

import "time"

// ExportRecord is a ledger entry for one rendered artifact written to a target.
type ExportRecord struct {
	Target      string    `json:"target" dynamodbav:"target"`           // Partition Key
	ExportedAt  time.Time `json:"exported_at" dynamodbav:"exported_at"` // Sort Key
	Location    string    `json:"location" dynamodbav:"location"`
	StorageType string    `json:"storage_type" dynamodbav:"storage_type"`
	Bytes       int64     `json:"bytes" dynamodbav:"bytes"`
}
