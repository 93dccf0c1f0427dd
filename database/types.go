package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

/* ========================================================================
 * JSONB Type
 * ========================================================================
 * Shared gorm mapping for schemaless columns: page content blocks, site
 * settings, theme overrides. PostgreSQL stores it as JSONB, MySQL and
 * SQLite as serialized JSON text.
 * ======================================================================== */

// JSONB maps a JSON object column.
type JSONB map[string]interface{}

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
	return json.Unmarshal(data, j)
}

// ToStringMap flattens the object into string values, for template data
// and API responses that only speak strings.
func (j JSONB) ToStringMap() map[string]string {
	result := make(map[string]string)
	for k, v := range j {
		switch val := v.(type) {
		case string:
			result[k] = val
		case float64:
			result[k] = fmt.Sprintf("%v", val)
		case bool:
			if val {
				result[k] = "true"
			} else {
				result[k] = "false"
			}
		default:
			if bytes, err := json.Marshal(v); err == nil {
				result[k] = string(bytes)
			}
		}
	}
	return result
}
