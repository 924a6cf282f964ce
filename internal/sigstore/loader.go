// Package sigstore loads and holds the reference database of template
// signatures. Signature documents are JSON files produced by an external
// generator; this package validates and parses them into an immutable
// in-memory database.
//
// A malformed document is skipped with a warning and never aborts loading
// the remaining files. Only a missing or unreadable signatures directory
// is a hard error, because that is a configuration mistake rather than a
// bad input.
package sigstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var signatureSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// signatureSchema compiles the embedded document schema once per process.
func signatureSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("signature.schema.json", bytes.NewReader(signatureSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to load signature schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("signature.schema.json")
	})
	return schema, schemaErr
}

// Load scans dir for *.json signature documents and builds a database.
//
// Files are read in lexicographic order. Each document is validated
// against the signature schema and then decoded; a file that cannot be
// read, validated or decoded is logged at warning level and skipped.
// A document without a template_id is likewise skipped. An empty
// directory yields a valid empty database.
func Load(dir string, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("signatures directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("signatures path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read signatures directory %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	sigs := make([]*TemplateSignature, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		sig, err := parseFile(path)
		if err != nil {
			logger.Warn("skipping malformed signature file",
				"file", path, "error", err)
			continue
		}
		if sig.TemplateID == "" {
			logger.Warn("skipping signature file without template_id", "file", path)
			continue
		}
		sigs = append(sigs, sig)
	}

	return NewDatabase(sigs...), nil
}

// parseFile validates and decodes a single signature document.
func parseFile(path string) (*TemplateSignature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	sch, err := signatureSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	var sig TemplateSignature
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &sig, nil
}
