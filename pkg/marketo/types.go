package marketo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// APITime handles the timestamp formats Marketo returns: RFC3339 with a
// zone offset missing the colon ("2024-05-01T10:00:00+0000") or with "Z".
type APITime struct {
	time.Time
}

var apiTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler for APITime
func (t *APITime) UnmarshalJSON(data []byte) error {
	var timeStr string
	if err := json.Unmarshal(data, &timeStr); err != nil {
		return err
	}

	// Handle empty string
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, format := range apiTimeFormats {
		if parsed, err := time.Parse(format, timeStr); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unable to parse time string: %s", timeStr)
}

// MarshalJSON implements json.Marshaler for APITime
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Token is a My Token override passed to a campaign.
type Token struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Import batch states reported by the bulk API.
const (
	ImportQueued    = "Queued"
	ImportImporting = "Importing"
	ImportComplete  = "Complete"
	ImportFailed    = "Failed"
)

// ImportStatus describes one bulk lead import batch.
type ImportStatus struct {
	BatchID              int    `json:"batchId"`
	ImportID             string `json:"importId"`
	Status               string `json:"status"`
	NumOfLeadsProcessed  int    `json:"numOfLeadsProcessed"`
	NumOfRowsFailed      int    `json:"numOfRowsFailed"`
	NumOfRowsWithWarning int    `json:"numOfRowsWithWarning"`
	Message              string `json:"message"`
}

// Done reports whether the batch reached a terminal state.
func (s ImportStatus) Done() bool {
	return s.Status == ImportComplete || s.Status == ImportFailed
}

// ImportOptions are the optional form fields of a bulk lead import.
type ImportOptions struct {
	// Format is csv, tsv or ssv. Empty means csv.
	Format        string
	LookupField   string
	ListID        int
	PartitionName string
}

// ActivityType is an entry of the activity type catalog.
type ActivityType struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	PrimaryAttribute *Field  `json:"primaryAttribute,omitempty"`
	Attributes       []Field `json:"attributes,omitempty"`
}

// Field is a named, typed attribute in describe and activity type results.
type Field struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// TypedValue is a typed setting such as an email subject or sender.
type TypedValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Email is an email asset.
type Email struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Subject     *TypedValue `json:"subject,omitempty"`
	FromName    *TypedValue `json:"fromName,omitempty"`
	Status      string      `json:"status"`
	Template    int         `json:"template"`
	CreatedAt   APITime     `json:"createdAt"`
	UpdatedAt   APITime     `json:"updatedAt"`
}
