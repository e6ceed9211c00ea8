package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/rs/zerolog"

	apperrors "github.com/fabiosv/aws-resources-mapper/pkg/errors"
)

// DefaultInputSuffix is the file suffix written by the report producer.
const DefaultInputSuffix = "_network_report.json"

// snappyMagic opens every snappy framed stream.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// Source fetches a raw inventory document by key. Implementations wrap
// fs.ErrNotExist when the key does not exist.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Loader reads inventory documents and tags them with their network ID.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a loader that logs through logger.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger}
}

// InputPath resolves where the inventory for networkID lives. An explicit
// path always wins; otherwise the network ID is joined with suffix.
func InputPath(networkID, explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	if suffix == "" {
		suffix = DefaultInputSuffix
	}
	return networkID + suffix
}

// LoadFile reads the inventory at path. A missing file fails fast with
// ErrInventoryNotLoaded rather than yielding an empty document.
func (l *Loader) LoadFile(networkID, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Error().Str("path", path).Msg("Inventory file not found")
			return nil, fmt.Errorf("%w: file not found: %s", apperrors.ErrInventoryNotLoaded, path)
		}
		return nil, fmt.Errorf("failed to read inventory %s: %w", path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.NetworkID = networkID
	l.logLoaded(doc, path)
	return doc, nil
}

// Load reads the inventory stored under key in src.
func (l *Loader) Load(ctx context.Context, src Source, networkID, key string) (*Document, error) {
	data, err := src.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Error().Str("key", key).Msg("Inventory object not found")
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInventoryNotLoaded, err)
		}
		return nil, fmt.Errorf("failed to fetch inventory %s: %w", key, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	doc.NetworkID = networkID
	l.logLoaded(doc, key)
	return doc, nil
}

func (l *Loader) logLoaded(doc *Document, location string) {
	event := l.logger.Info().
		Str("location", location).
		Int(CategorySubnets, len(doc.Subnets)).
		Int(CategorySecurityGroups, len(doc.SecurityGroups)).
		Int(CategoryNetworkInterfaces, len(doc.NetworkInterfaces)).
		Int(CategoryNetworkACLs, len(doc.NetworkACLs)).
		Int(CategoryInternetGateways, len(doc.InternetGateways)).
		Int(CategoryRouteTables, len(doc.RouteTables))
	if missing := doc.Missing(); len(missing) > 0 {
		event = event.Str("missing", strings.Join(missing, ","))
	}
	event.Msg("Inventory loaded")
}

// ParseDocument decodes an inventory document, unwrapping snappy framing when present.
func ParseDocument(data []byte) (*Document, error) {
	if bytes.HasPrefix(data, snappyMagic) {
		decoded, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress inventory: %w", err)
		}
		data = decoded
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse inventory JSON: %w", err)
	}
	return &doc, nil
}
