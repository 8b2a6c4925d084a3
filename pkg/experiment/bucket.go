package experiment

import (
	"crypto/sha256"
	"errors"
	"strings"
)

// Bucket is one arm of the downsell experiment.
type Bucket string

const (
	BucketA Bucket = "A"
	BucketB Bucket = "B"

	// DefaultBucket is used whenever a digest cannot be computed.
	DefaultBucket = BucketA

	// DefaultSalt matches the salt shipped with the first experiment run.
	// Rotating it reshuffles every assignment.
	DefaultSalt = "mm_downsell_v1_salt"
)

var errEmptyDigest = errors.New("digest returned no bytes")

// ParseBucket accepts only the two known arms.
func ParseBucket(s string) (Bucket, bool) {
	switch Bucket(s) {
	case BucketA, BucketB:
		return Bucket(s), true
	}
	return "", false
}

func (b Bucket) String() string {
	return string(b)
}

// DigestFunc computes a digest over data.
type DigestFunc func(data []byte) ([]byte, error)

// SHA256 is the production digest.
func SHA256(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// Assigner maps identifiers to buckets without stored state.
type Assigner struct {
	Salt   string
	Digest DigestFunc
}

// NewAssigner returns a SHA-256 assigner. An empty salt falls back to DefaultSalt.
func NewAssigner(salt string) *Assigner {
	if salt == "" {
		salt = DefaultSalt
	}
	return &Assigner{Salt: salt, Digest: SHA256}
}

// Assign returns the bucket for identifier. It never fails: when the digest is
// unavailable the DefaultBucket is returned together with the cause.
func (a *Assigner) Assign(identifier string) (Bucket, error) {
	if a == nil || a.Digest == nil {
		return DefaultBucket, errors.New("digest unavailable")
	}

	// Only case is folded here. Callers pass an already trimmed email.
	seed := strings.ToLower(identifier)
	sum, err := a.Digest([]byte(a.Salt + "|" + seed))
	if err != nil {
		return DefaultBucket, err
	}
	if len(sum) == 0 {
		return DefaultBucket, errEmptyDigest
	}

	if sum[0] < 128 {
		return BucketA, nil
	}
	return BucketB, nil
}

// Assign is the package-level shortcut using SHA-256.
func Assign(salt, identifier string) Bucket {
	b, _ := (&Assigner{Salt: salt, Digest: SHA256}).Assign(identifier)
	return b
}
