package db

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v3"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// EncodeOptions controls how a graph document is serialized.
type EncodeOptions struct {
	Format   string
	Tagged   bool
	Compress bool
}

// FileName returns "<network>_network_graph.<ext>", with ".sz" appended for
// snappy-compressed output.
func FileName(networkID string, opts EncodeOptions) string {
	ext := FormatJSON
	switch opts.Format {
	case FormatYAML:
		ext = FormatYAML
	case FormatText:
		ext = "txt"
	}
	name := "network_graph." + ext
	if networkID != "" {
		name = networkID + "_" + name
	}
	if opts.Compress {
		name += ".sz"
	}
	return name
}

// ContentType returns the MIME type for encoded output.
func ContentType(opts EncodeOptions) string {
	switch {
	case opts.Compress:
		return "application/x-snappy-framed"
	case opts.Format == FormatYAML:
		return "application/yaml"
	case opts.Format == FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serializes g as the plain or tagged document.
func Encode(g *api.NetworkGraph, opts EncodeOptions) ([]byte, error) {
	var doc any = g.Document()
	if opts.Tagged {
		doc = g.Tagged()
	}

	var data []byte
	var err error
	switch opts.Format {
	case FormatText:
		data = []byte(g.Text(opts.Tagged))
	case "", FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	if !opts.Compress {
		return data, nil
	}

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress graph: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress graph: %w", err)
	}
	return buf.Bytes(), nil
}

// GraphHash is a content hash over nodes and tagged edges, stable across
// builds of the same inventory.
func GraphHash(g *api.NetworkGraph) string {
	var sb strings.Builder
	for _, n := range g.Nodes {
		sb.WriteString(n)
		sb.WriteByte('\n')
	}
	sb.WriteString("--\n")
	for _, e := range g.Edges {
		sb.WriteString(e.Source)
		sb.WriteByte('\t')
		sb.WriteString(e.Target)
		sb.WriteByte('\t')
		sb.WriteString(string(e.Kind))
		sb.WriteByte('\n')
	}
	h := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(h[:])
}
