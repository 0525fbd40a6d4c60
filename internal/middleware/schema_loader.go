package middleware

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	contextutils "campusvoice/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schema names
const (
	SchemaNewComplaint    = "new_complaint"
	SchemaComplaintUpdate = "complaint_update"
	SchemaSessionRequest  = "session_request"
)

// SchemaLoader holds compiled JSON schemas by name
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaLoader creates an empty schema loader
func NewSchemaLoader() *SchemaLoader {
	return &SchemaLoader{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// AddSchema compiles raw and registers it under name
func (sl *SchemaLoader) AddSchema(name string, raw []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to compile schema %s", name)
	}
	sl.schemas[name] = schema
	return nil
}

// Has reports whether a schema is registered
func (sl *SchemaLoader) Has(name string) bool {
	_, ok := sl.schemas[name]
	return ok
}

// Names lists the registered schemas in sorted order
func (sl *SchemaLoader) Names() []string {
	names := make([]string, 0, len(sl.schemas))
	for name := range sl.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadEmbeddedSchemas compiles every schema shipped in the binary
func LoadEmbeddedSchemas() (*SchemaLoader, error) {
	loader := NewSchemaLoader()

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list embedded schemas")
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		raw, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to read schema %s", entry.Name())
		}
		if err := loader.AddSchema(strings.TrimSuffix(entry.Name(), ".json"), raw); err != nil {
			return nil, err
		}
	}
	return loader, nil
}

var (
	defaultLoader     *SchemaLoader
	defaultLoaderErr  error
	defaultLoaderOnce sync.Once
)

// DefaultSchemaLoader returns the process-wide loader of embedded schemas
func DefaultSchemaLoader() (*SchemaLoader, error) {
	defaultLoaderOnce.Do(func() {
		defaultLoader, defaultLoaderErr = LoadEmbeddedSchemas()
	})
	return defaultLoader, defaultLoaderErr
}

// ValidateBytes validates a raw JSON document against a schema
func (sl *SchemaLoader) ValidateBytes(body []byte, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	if !json.Valid(body) {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Invalid JSON body", "")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return contextutils.WrapError(err, "validation error")
	}

	if !result.Valid() {
		var validationErrors []string
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.NewAppError(
			contextutils.ErrorCodeValidationFailed,
			contextutils.SeverityWarn,
			"Invalid request data",
			strings.Join(validationErrors, "; "),
		)
	}

	return nil
}

// ValidateData validates a decoded value against a schema
func (sl *SchemaLoader) ValidateData(data interface{}, schemaName string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal data")
	}
	return sl.ValidateBytes(jsonData, schemaName)
}
