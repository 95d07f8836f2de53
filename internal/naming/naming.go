// Package naming decides the file names emitted for each chunk.
package naming

import (
	"encoding/binary"
	"encoding/hex"
	"path"
	"strings"

	"github.com/minio/crc64nvme"
)

const (
	// CommonsMain is the client bootstrap chunk.
	CommonsMain = "static/commons/main.js"
	// RuntimeChunk holds the module loading runtime shared by all client chunks.
	RuntimeChunk = "static/commons/runtime.js"
	// ChunksDir is where client split chunks are written.
	ChunksDir = "static/chunks"

	hotUpdateDir = "static/webpack"
)

// Chunk describes an emitted chunk as reported by the bundler.
type Chunk struct {
	Name        string `json:"name"`
	ContentHash string `json:"contentHash"`
}

// Policy computes file names for one build target.
type Policy struct {
	Dev      bool `json:"dev"`
	IsServer bool `json:"isServer"`
}

// IsInfrastructure reports whether name is one of the fixed bootstrap chunks.
func IsInfrastructure(name string) bool {
	return name == CommonsMain || name == RuntimeChunk
}

// Filename returns the emitted name for an entry chunk. Page chunks keep their
// name so manifest lookups stay stable.
func (p Policy) Filename(c Chunk) string {
	if p.Dev || !IsInfrastructure(c.Name) {
		return c.Name
	}

	ext := path.Ext(c.Name)
	return strings.TrimSuffix(c.Name, ext) + "-" + c.ContentHash + ext
}

// ChunkFilename returns the emitted name for a dynamically imported chunk.
func (p Policy) ChunkFilename(c Chunk) string {
	name := c.ContentHash
	if p.Dev {
		name = c.Name
	}
	if !strings.HasSuffix(name, ".js") {
		name += ".js"
	}

	if p.IsServer {
		return name
	}
	return path.Join(ChunksDir, name)
}

// ChunkPattern is the bundler template equivalent of ChunkFilename.
func (p Policy) ChunkPattern() string {
	name := "[hash].js"
	if p.Dev {
		name = "[name].js"
	}
	if p.IsServer {
		return name
	}
	return path.Join(ChunksDir, name)
}

// HotUpdateChunkFilename names a hot update chunk. Only used in development.
func HotUpdateChunkFilename(id, buildHash string) string {
	return path.Join(hotUpdateDir, id+"."+buildHash+".hot-update.js")
}

// HotUpdateMainFilename names the hot update manifest. Only used in development.
func HotUpdateMainFilename(buildHash string) string {
	return path.Join(hotUpdateDir, buildHash+".hot-update.json")
}

// ContentHash returns a short hex digest of data.
func ContentHash(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return hex.EncodeToString(sum[:])
}
