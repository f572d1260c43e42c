package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var ErrModelsCountsUnknownType = errors.New("models counts unknown type")

// Counts - per record type counters stored as JSONB
type Counts map[string]int64

// Get returns the counter for recordType or 0
func (c Counts) Get(recordType string) int64 {
	return c[recordType]
}

// Add shifts the counter for recordType by delta, never below zero
func (c *Counts) Add(recordType string, delta int64) {
	if *c == nil {
		*c = make(Counts)
	}
	v := (*c)[recordType] + delta
	if v <= 0 {
		delete(*c, recordType)
		return
	}
	(*c)[recordType] = v
}

func (c Counts) Clone() Counts {
	clone := make(Counts, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

func (c Counts) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

func (c *Counts) Scan(value any) error {
	if value == nil {
		*c = Counts{}
		return nil
	}

	data := []byte{}
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return ErrModelsCountsUnknownType
	}

	*c = Counts{}
	return json.Unmarshal(data, c)
}
