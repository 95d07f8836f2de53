package jsonpatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jp "github.com/evanphx/json-patch/v5"
)

var ErrUnsupportedOp = errors.New("unsupported patch operation")

type Patch = jp.Patch

var opts = jp.ApplyOptions{
	EnsurePathExistsOnAdd:    true,
	AllowMissingPathOnRemove: true,
}

// Decode parses an RFC 6902 document and rejects anything but add, remove and replace.
func Decode(data []byte) (Patch, error) {
	p, err := jp.DecodePatch(data)
	if err != nil {
		return nil, err
	}

	for _, op := range p {
		switch op.Kind() {
		case "replace", "remove", "add":
		default:
			return nil, fmt.Errorf("%w %q, must be one of \"replace\", \"add\", \"remove\"", ErrUnsupportedOp, op.Kind())
		}
	}

	return p, nil
}

// Apply patches doc.
func Apply(p Patch, doc json.RawMessage) (json.RawMessage, error) {
	if len(p) == 0 {
		return doc, nil
	}
	return p.ApplyWithOptions(doc, &opts)
}

// Split partitions p into operations under prefix and everything else,
// preserving order within each.
func Split(p Patch, prefix string) (under, rest Patch, err error) {
	for _, op := range p {
		path, err := op.Path()
		if err != nil {
			return nil, nil, err
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			under = append(under, op)
			continue
		}
		rest = append(rest, op)
	}
	return under, rest, nil
}

// Touches reports whether any operation targets prefix or a path beneath it.
func Touches(p Patch, prefix string) bool {
	under, _, err := Split(p, prefix)
	return err != nil || len(under) > 0
}
