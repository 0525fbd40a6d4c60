package services

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	contextutils "campusvoice/internal/utils"
)

const (
	// ComplaintIDPrefix starts every tracking code
	ComplaintIDPrefix = "CV-"

	complaintIDSuffixLen = 3
)

// 36^3 possible suffixes
var complaintIDSuffixSpace = big.NewInt(36 * 36 * 36)

// ComplaintIDGenerator returns a fresh tracking code on every call
type ComplaintIDGenerator func() (string, error)

// NewComplaintIDGenerator builds a generator from a clock and a randomness source.
// Nil arguments fall back to time.Now and crypto/rand.
func NewComplaintIDGenerator(clock func() time.Time, rnd io.Reader) ComplaintIDGenerator {
	if clock == nil {
		clock = time.Now
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	return func() (string, error) {
		return GenerateComplaintID(clock(), rnd)
	}
}

// GenerateComplaintID renders "CV-" + base36(unix millis) + three random base36 characters, all uppercase.
func GenerateComplaintID(now time.Time, rnd io.Reader) (string, error) {
	n, err := rand.Int(rnd, complaintIDSuffixSpace)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read random suffix")
	}

	suffix := strconv.FormatInt(n.Int64(), 36)
	if pad := complaintIDSuffixLen - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}

	timestamp := strconv.FormatInt(now.UnixMilli(), 36)
	return ComplaintIDPrefix + strings.ToUpper(timestamp+suffix), nil
}

// NormalizeComplaintID prepares a user-supplied tracking code for lookup
func NormalizeComplaintID(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
