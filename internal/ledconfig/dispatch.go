package ledconfig

import "github.com/smazurov/ledmanager/internal/layout"

// defaultVersion is assumed when a document carries no version marker.
const defaultVersion = 1

type parser func(doc *Document, o *options) (layout.GroupMap, error)

// parsers holds one entry per supported schema version.
var parsers = map[int]parser{
	1: parseV1,
}

type versionHeader struct {
	Version *int `yaml:"version"`
}

// documentVersion returns the schema version of doc.
func documentVersion(doc *Document) (int, error) {
	var header versionHeader
	if err := doc.Decode(&header); err != nil {
		return 0, err
	}
	if header.Version == nil {
		return defaultVersion, nil
	}
	return *header.Version, nil
}

// dispatch routes doc to the parser registered for its version.
func dispatch(doc *Document, o *options) (layout.GroupMap, error) {
	version, err := documentVersion(doc)
	if err != nil {
		return nil, err
	}

	parse, ok := parsers[version]
	if !ok {
		return nil, &UnsupportedVersionError{Version: version}
	}

	return parse(doc, o)
}
