package transport

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	sri "github.com/peterebden/go-sri"
)

// Algorithm names as they appear in session config and sibling checksum
// file extensions (§4.D.2).
const (
	MD5    = "md5"
	SHA1   = "sha1"
	SHA256 = "sha256"
	SHA512 = "sha512"
)

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("transport: unsupported checksum algorithm %q", algorithm)
	}
}

// Digest is one algorithm's result from a Calculator: either a hex-encoded
// digest, or an error recorded in place of it (an unsupported algorithm,
// or an offset-overrun on a resumed download that invalidated the running
// hash state).
type Digest struct {
	Hex string
	Err error
}

// Calculator pipes a byte stream through a fixed set of hash algorithms in
// parallel, supporting resume: Init records the byte offset a resumed
// transfer starts at, and any data fed before the hasher has seen that many
// bytes replayed from the local partial file invalidates that algorithm's
// digest.
type Calculator struct {
	algorithms []string
	hashers    map[string]hash.Hash
	invalid    map[string]bool

	offset int64
	seen   int64
}

// NewCalculator creates a Calculator for the given algorithms (a subset of
// MD5/SHA1/SHA256/SHA512).
func NewCalculator(algorithms ...string) *Calculator {
	return &Calculator{algorithms: algorithms}
}

// Init discards any prior state and begins a transfer that starts offset
// bytes into the target resource. If offset > 0 the caller is expected to
// call Update with the previously-downloaded bytes (replayed from the
// local partial file) before the newly-fetched bytes; if it never does,
// Get marks every algorithm invalid for this transfer.
func (c *Calculator) Init(offset int64) {
	c.hashers = make(map[string]hash.Hash, len(c.algorithms))
	c.invalid = make(map[string]bool, len(c.algorithms))
	c.offset = offset
	c.seen = 0
	for _, a := range c.algorithms {
		h, err := newHash(a)
		if err != nil {
			c.invalid[a] = true
			continue
		}
		c.hashers[a] = h
	}
}

// Update feeds additional bytes through every active hasher.
func (c *Calculator) Update(p []byte) {
	c.seen += int64(len(p))
	for _, h := range c.hashers {
		h.Write(p)
	}
}

// Get finalises and returns one Digest (or error) per configured
// algorithm. An algorithm whose Init failed, or whose transfer started at
// a nonzero offset without enough bytes ever being replayed through
// Update, carries an error instead of a digest.
func (c *Calculator) Get() map[string]Digest {
	out := make(map[string]Digest, len(c.algorithms))
	overrun := c.offset > 0 && c.seen < c.offset
	for _, a := range c.algorithms {
		if c.invalid[a] {
			out[a] = Digest{Err: fmt.Errorf("transport: checksum algorithm %q unsupported", a)}
			continue
		}
		if overrun {
			out[a] = Digest{Err: fmt.Errorf("transport: resume offset %d exceeds replayed bytes %d, checksum invalid", c.offset, c.seen)}
			continue
		}
		out[a] = Digest{Hex: hex.EncodeToString(c.hashers[a].Sum(nil))}
	}
	return out
}

// ParseSiblingDigest parses a sibling checksum file's content as a bare hex
// digest — the Maven convention for ".sha1"/".md5" sibling files — so it
// can be compared directly against Calculator output. SRI-form sibling
// digests ("sha256-<base64>") have no standalone hex form; compare those
// with VerifySiblingDigest instead.
func ParseSiblingDigest(content string) (string, error) {
	content = strings.TrimSpace(content)
	if idx := strings.IndexByte(content, ' '); idx >= 0 {
		// Some repositories publish "<hex>  <filename>" (coreutils sha1sum
		// format); keep only the digest field.
		content = content[:idx]
	}
	if strings.Contains(content, "-") {
		return "", fmt.Errorf("transport: sibling digest %q is SRI-form, use VerifySiblingDigest", content)
	}
	return strings.ToLower(content), nil
}

// VerifySiblingDigest checks data against a sibling digest string in
// either hex or SRI form, returning nil on a match.
func VerifySiblingDigest(algorithm, siblingContent string, data []byte) error {
	content := strings.TrimSpace(siblingContent)
	if strings.Contains(content, "-") {
		checker, err := sri.NewChecker(content)
		if err != nil {
			return fmt.Errorf("transport: parsing SRI sibling digest: %w", err)
		}
		if _, err := checker.Write(data); err != nil {
			return err
		}
		return checker.Check()
	}
	hexDigest, err := ParseSiblingDigest(content)
	if err != nil {
		return err
	}
	h, err := newHash(algorithm)
	if err != nil {
		return err
	}
	h.Write(data)
	if got := hex.EncodeToString(h.Sum(nil)); got != hexDigest {
		return fmt.Errorf("transport: checksum mismatch: got %s want %s", got, hexDigest)
	}
	return nil
}
