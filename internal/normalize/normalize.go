// Package normalize flattens Cloud Logging entries into the uniform record
// shape the rest of the pipeline consumes.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/logging"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lumenops/logsleuth/internal/models"
	"github.com/lumenops/logsleuth/internal/utils"
)

// maxTextLen caps the extracted payload text so a single oversized entry
// cannot blow up the rendered report.
const maxTextLen = 2000

// Record converts a single log entry. Missing fields become zero values; the
// conversion itself never fails.
func Record(e *logging.Entry) models.LogRecord {
	if e == nil {
		return models.LogRecord{}
	}

	rec := models.LogRecord{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Severity:  e.Severity.String(),
		Trace:     e.Trace,
		Text:      payloadText(e.Payload),
	}
	if e.Resource != nil {
		rec.Service = e.Resource.Labels["service_name"]
	}
	if e.HTTPRequest != nil {
		if e.HTTPRequest.Request != nil {
			rec.Method = e.HTTPRequest.Request.Method
			if e.HTTPRequest.Request.URL != nil {
				rec.URL = e.HTTPRequest.Request.URL.String()
			}
		}
		rec.Status = e.HTTPRequest.Status
	}
	return rec
}

// Records converts a batch, preserving order.
func Records(entries []*logging.Entry) []models.LogRecord {
	records := make([]models.LogRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, Record(e))
	}
	return records
}

// payloadText extracts a single text line from whichever payload shape the
// entry carries. Structured payloads prefer their message field; otherwise
// the whole structure is serialised as JSON.
func payloadText(payload interface{}) string {
	var text string
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		text = p
	case *structpb.Struct:
		text = structText(p.AsMap())
	case map[string]interface{}:
		text = structText(p)
	case proto.Message:
		b, err := protojson.Marshal(p)
		if err != nil {
			text = fmt.Sprintf("%v", p)
		} else {
			text = string(b)
		}
	default:
		text = fmt.Sprintf("%v", p)
	}
	return utils.TruncateText(text, maxTextLen)
}

func structText(m map[string]interface{}) string {
	for _, key := range []string{"message", "msg"} {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
