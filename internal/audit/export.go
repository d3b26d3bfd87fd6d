package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"
)

// WriteCSV renders entries as a CSV document for the admin export.
func WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"timestamp", "actor_id", "actor_name", "action", "module", "resource_type", "resource_id", "ip_address", "details"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err != nil {
				return nil, err
			}
			details = string(raw)
		}
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.ActorID,
			e.ActorName,
			e.Action,
			e.Module,
			e.ResourceType,
			e.ResourceID,
			e.IPAddress,
			details,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
