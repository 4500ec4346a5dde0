package providers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/five82/lookout/internal/logs"
)

// parseLine maps a JSON object line onto an entry; anything else becomes a
// plain INFO message.
func parseLine(payload []byte, host string) (logs.Entry, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return logs.Entry{}, false
	}
	entry := logs.Entry{Time: time.Now(), Type: "INFO", Host: host}

	if trimmed[0] == '{' {
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err == nil {
			fill(&entry, raw)
			return entry, true
		}
	}
	entry.Description = string(trimmed)
	return entry, true
}

func fill(e *logs.Entry, raw map[string]any) {
	take := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k]; ok {
				delete(raw, k)
				if s, ok := v.(string); ok {
					return s
				}
				b, _ := json.Marshal(v)
				return string(b)
			}
		}
		return ""
	}
	if level := take("level", "lvl", "severity"); level != "" {
		e.Type = normalizeLevel(level)
	}
	e.Description = take("message", "msg", "description")
	e.System = take("logger", "system", "component")
	e.Thread = take("thread")
	if h := take("host", "hostname"); h != "" {
		e.Host = h
	}
	if ts := take("time", "ts", "timestamp"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Time = parsed
		}
	}
	if len(raw) > 0 {
		e.Metadata = make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				e.Metadata[k] = s
				continue
			}
			b, _ := json.Marshal(v)
			e.Metadata[k] = string(b)
		}
	}
}

type log4jEvent struct {
	Logger    string `xml:"logger,attr"`
	Level     string `xml:"level,attr"`
	Thread    string `xml:"thread,attr"`
	Timestamp string `xml:"timestamp,attr"`
	Message   string `xml:"message"`
	Throwable string `xml:"throwable"`
	Props     []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	} `xml:"properties>data"`
}

// parseLog4j decodes a log4j XML event datagram. Non-XML payloads fall back to
// parseLine.
func parseLog4j(payload []byte, host string) (logs.Entry, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return parseLine(trimmed, host)
	}
	var ev log4jEvent
	if err := xml.Unmarshal(trimmed, &ev); err != nil {
		return parseLine(trimmed, host)
	}

	entry := logs.Entry{
		Time:        time.Now(),
		Type:        normalizeLevel(ev.Level),
		System:      ev.Logger,
		Thread:      ev.Thread,
		Host:        host,
		Description: ev.Message,
	}
	if ms, err := strconv.ParseInt(ev.Timestamp, 10, 64); err == nil {
		entry.Time = time.UnixMilli(ms)
	}
	if ev.Throwable != "" || len(ev.Props) > 0 {
		entry.Metadata = make(map[string]string, len(ev.Props)+1)
		for _, p := range ev.Props {
			entry.Metadata[p.Name] = p.Value
		}
		if ev.Throwable != "" {
			entry.Metadata["throwable"] = ev.Throwable
		}
	}
	if h, ok := entry.Metadata["log4jmachinename"]; ok && h != "" {
		entry.Host = h
	}
	return entry, true
}

func normalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	case "ERR":
		return "ERROR"
	case "CRITICAL":
		return "FATAL"
	default:
		return l
	}
}
