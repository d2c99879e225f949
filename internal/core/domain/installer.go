package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// InstallerRole is the single logical slot an installer occupies on a cluster.
// Registering another installer under the same role supersedes the previous one.
const InstallerRole = "lockship.installer"

// Codec names the compression applied to installer payloads.
type Codec string

const (
	// CodecZstd compresses payloads with zstd.
	CodecZstd Codec = "zstd"
	// CodecLZ4 compresses payloads with lz4 block compression.
	CodecLZ4 Codec = "lz4"
	// CodecNone ships payloads uncompressed.
	CodecNone Codec = "none"
)

// Fingerprint identifies the exact content an installer converges a worker to.
type Fingerprint uint64

// String returns the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return Fingerprint(v), nil
}

// ComputeFingerprint hashes the backend and the uncompressed project and lockfile.
func ComputeFingerprint(backend Backend, project, lockfile []byte) Fingerprint {
	d := xxhash.New()
	_, _ = d.WriteString(backend.String())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.Itoa(len(project)))
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(project)
	_, _ = d.Write(lockfile)
	return Fingerprint(d.Sum64())
}

// Installer is the payload shipped to every worker. It embeds the full,
// compressed project descriptor and lockfile so the worker reproduces them
// byte for byte without importing anything from the client.
type Installer struct {
	Role        string
	Backend     Backend
	Codec       Codec
	Project     []byte
	Lockfile    []byte
	Fingerprint Fingerprint
	CreatedAt   time.Time
}
