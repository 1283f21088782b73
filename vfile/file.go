// Package vfile implements File reference values: opaque path+metadata
// references whose content lives in a Context, not in the File itself,
// plus the Text/JSON/JSONLines kinds and their casters.
package vfile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/flowmesh/engine/value"
)

// Kind is a File variant: Text, JSON, or JSONLines. Each is a package
// singleton, analogous to the reference implementation's per-format File
// subclasses.
type Kind struct {
	name string
	mime string
}

func (k *Kind) Origin() value.Origin  { return value.OriginFile }
func (k *Kind) Args() []value.Variant { return nil }
func (k *Kind) Key() string           { return "File<" + k.name + ">" }
func (k *Kind) Name() string          { return k.name }
func (k *Kind) MIMEType() string      { return k.mime }

var (
	TextKind      = &Kind{name: "Text", mime: "text/plain"}
	JSONKind      = &Kind{name: "JSON", mime: "application/json"}
	JSONLinesKind = &Kind{name: "JSONLines", mime: "application/x-ndjson"}
)

// File is an immutable reference: a path, a format Kind, and an opaque
// string-keyed metadata map. It never carries content; Read/Write go
// through a Storage.
type File struct {
	Path     string
	Kind     *Kind
	Metadata map[string]string
}

func New(kind *Kind, path string) File {
	return File{Path: path, Kind: kind, Metadata: map[string]string{}}
}

// WriteMetadata returns a copy of f with key bound to value. If key is
// already present, the existing value must match exactly — metadata
// stamping is idempotent, never overwriting.
func (f File) WriteMetadata(key, val string) (File, error) {
	if existing, ok := f.Metadata[key]; ok {
		if existing != val {
			return File{}, fmt.Errorf("vfile: metadata key %q already set to %q, cannot change to %q", key, existing, val)
		}
		return f, nil
	}
	next := make(map[string]string, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		next[k] = v
	}
	next[key] = val
	return File{Path: f.Path, Kind: f.Kind, Metadata: next}, nil
}

// Storage is the narrow subset of a Context that File values need:
// reading and writing raw bytes by path. Defined here (rather than
// imported) so vfile has no dependency on the runctx or engine packages.
type Storage interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) (string, error)
}

// Read returns the raw bytes at f's path.
func (f File) Read(s Storage) ([]byte, error) {
	return s.ReadFile(f.Path)
}

// Write stores content at a content-addressed path (md5 of the bytes,
// matching the reference implementation's "path = md5 of payload" rule
// for values serialized to a fresh file) and returns the resulting File.
func Write(s Storage, kind *Kind, content []byte) (File, error) {
	sum := md5.Sum(content)
	path := hex.EncodeToString(sum[:])
	actualPath, err := s.WriteFile(path, content)
	if err != nil {
		return File{}, err
	}
	return New(kind, actualPath), nil
}

// WriteAt stores content at an explicit, caller-chosen path rather than a
// content-addressed one, for nodes whose output path is itself part of
// the contract (append-to-file's "insert a suffix before the extension"
// rule, for instance) instead of an incidental hash.
func WriteAt(s Storage, kind *Kind, path string, content []byte) (File, error) {
	actualPath, err := s.WriteFile(path, content)
	if err != nil {
		return File{}, err
	}
	return New(kind, actualPath), nil
}

func init() {
	value.RegisterJSONEncoder(value.OriginFile, func(v value.Value) (any, error) {
		f, ok := v.Payload().(File)
		if !ok {
			return nil, fmt.Errorf("vfile: value payload is not a File")
		}
		return map[string]any{
			"path":     f.Path,
			"kind":     f.Kind.Name(),
			"metadata": f.Metadata,
		}, nil
	})
}
