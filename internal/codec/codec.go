package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/registry"
)

var (
	// ErrMalformedRecord indicates a record that is not a JSON object, lacks a
	// discriminator, or fails validation.
	ErrMalformedRecord = errors.New("codec: malformed record")
	// ErrUnknownKind indicates a discriminator outside the catalogue.
	ErrUnknownKind = errors.New("codec: unknown record kind")
)

const (
	typeField = "$type"
	// Separator terminates every record in a session file.
	Separator        = "~"
	escapedSeparator = `\u007e`
)

//go:embed schema.json
var envelopeSchemaJSON []byte

var envelopeSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	schema, err := jsonschema.NewCompiler().Compile(envelopeSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return schema, nil
})

// Record is a decoded session file record: *ServiceRecord or *SessionRecord.
type Record interface {
	RecordKind() string
	record()
}

// ServiceRecord is a persisted service and the capability it binds to.
type ServiceRecord struct {
	Kind       string
	Capability registry.Capability
	Service    registry.Persistable
}

func (r *ServiceRecord) RecordKind() string { return r.Kind }
func (*ServiceRecord) record()              {}

// SessionRecord is the session envelope.
type SessionRecord struct {
	Name      string
	Views     []string
	Providers []providers.PendingRecord
}

func (*SessionRecord) RecordKind() string { return KindSession }
func (*SessionRecord) record()            {}

type envelope struct {
	Name      string            `json:"name"`
	Views     []string          `json:"views"`
	Providers []json.RawMessage `json:"providers"`
}

// Decode parses one record.
func Decode(raw []byte) (Record, error) {
	raw = bytes.TrimSpace(raw)
	kindName, err := discriminator(raw)
	if err != nil {
		return nil, err
	}

	if kindName == KindSession {
		return decodeSession(raw)
	}
	k, ok := lookup(kindName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}
	svc := k.blank()
	if err := json.Unmarshal(raw, svc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, kindName, err)
	}
	return &ServiceRecord{Kind: k.name, Capability: k.capability, Service: svc}, nil
}

// DecodeStream splits data on the record separator and decodes every
// non-blank record. Errors name the 1-based record position.
func DecodeStream(data []byte) ([]Record, error) {
	var out []Record
	index := 0
	for _, chunk := range bytes.Split(data, []byte(Separator)) {
		chunk = bytes.TrimSpace(chunk)
		if len(chunk) == 0 {
			continue
		}
		index++
		rec, err := Decode(chunk)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", index, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func discriminator(raw []byte) (string, error) {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	tag, ok := head[typeField]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedRecord, typeField)
	}
	var name string
	if err := json.Unmarshal(tag, &name); err != nil || name == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrMalformedRecord, typeField)
	}
	return name, nil
}

func decodeSession(raw []byte) (*SessionRecord, error) {
	schema, err := envelopeSchema()
	if err != nil {
		return nil, err
	}
	if result := schema.ValidateJSON(raw); !result.IsValid() {
		return nil, fmt.Errorf("%w: session envelope: %v", ErrMalformedRecord, result.Errors)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: session envelope: %v", ErrMalformedRecord, err)
	}
	if logs.NormalizeName(env.Name) == "" {
		return nil, fmt.Errorf("%w: session envelope: blank name", ErrMalformedRecord)
	}
	rec := &SessionRecord{Name: env.Name, Views: env.Views}
	for i, p := range env.Providers {
		s, err := decodeProvider(p)
		if err != nil {
			return nil, fmt.Errorf("provider %d: %w", i+1, err)
		}
		rec.Providers = append(rec.Providers, providers.Pending(s))
	}
	return rec, nil
}

func decodeProvider(raw []byte) (providers.Settings, error) {
	kindName, err := discriminator(raw)
	if err != nil {
		return nil, err
	}
	var s providers.Settings
	switch kindName {
	case providers.KindNetworkSettings:
		s = &providers.NetworkSettings{}
	case providers.KindUDPAppenderSettings:
		s = &providers.UDPAppenderSettings{}
	default:
		return nil, fmt.Errorf("%w: provider %q", ErrUnknownKind, kindName)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, kindName, err)
	}
	if ns, ok := s.(*providers.NetworkSettings); ok {
		ns.Protocol = providers.NormalizeProtocol(ns.Protocol)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, kindName, err)
	}
	return s, nil
}

// Encode writes p as a canonical record.
func Encode(p registry.Persistable) ([]byte, error) {
	return tagged(p.RecordKind(), p)
}

// EncodeSession writes the session envelope.
func EncodeSession(s SessionRecord) ([]byte, error) {
	entries := make([]json.RawMessage, 0, len(s.Providers))
	for _, p := range s.Providers {
		b, err := tagged(p.Settings.Kind(), p.Settings)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Settings.InstanceName(), err)
		}
		entries = append(entries, b)
	}
	views := s.Views
	if views == nil {
		views = []string{}
	}
	return tagged(KindSession, envelope{Name: s.Name, Views: views, Providers: entries})
}

// EncodeStream writes the envelope followed by every binding, in the order
// given, each terminated by the separator line.
func EncodeStream(s SessionRecord, bindings []registry.Binding) ([]byte, error) {
	var buf bytes.Buffer
	rec, err := EncodeSession(s)
	if err != nil {
		return nil, err
	}
	writeRecord(&buf, rec)

	for _, b := range bindings {
		p, ok := b.Instance.(registry.Persistable)
		if !ok {
			return nil, fmt.Errorf("binding %s is not persistable", b.Capability)
		}
		rec, err := Encode(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", b.Capability, err)
		}
		writeRecord(&buf, rec)
	}
	return buf.Bytes(), nil
}

func writeRecord(buf *bytes.Buffer, rec []byte) {
	buf.Write(rec)
	buf.WriteString(Separator)
	buf.WriteByte('\n')
}

// tagged marshals v, inserts the discriminator and canonicalizes the result.
func tagged(kindName string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%s does not encode to a JSON object", kindName)
	}
	tag, err := json.Marshal(kindName)
	if err != nil {
		return nil, err
	}

	var obj bytes.Buffer
	obj.WriteString(`{"` + typeField + `":`)
	obj.Write(tag)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 0 && rest[0] != '}' {
		obj.WriteByte(',')
	}
	obj.Write(body[1:])

	canonical, err := jcs.Transform(obj.Bytes())
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", kindName, err)
	}
	return bytes.ReplaceAll(canonical, []byte(Separator), []byte(escapedSeparator)), nil
}
