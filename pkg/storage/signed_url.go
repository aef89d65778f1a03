package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints and verifies the signed tokens that authorize report
// downloads. A token binds the export job id and the stored file name to an
// expiry; nothing else grants access to a report file.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// DownloadClaim is the verified content of a download token.
type DownloadClaim struct {
	ExportID  string
	FileName  string
	ExpiresAt time.Time
}

// NewDownloadSigner constructs a signer with the provided secret and TTL.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign returns a token granting download access to the named report file.
func (s *DownloadSigner) Sign(exportID, fileName string) (string, time.Time, error) {
	if exportID == "" || fileName == "" {
		return "", time.Time{}, fmt.Errorf("export id and file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedName := base64.RawURLEncoding.EncodeToString([]byte(fileName))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{exportID, ts, encodedName, s.signature(exportID, ts, encodedName)}, ".")
	return token, expiresAt, nil
}

// Verify checks a token's signature and expiry and returns the claim. When
// allowExpired is true the expiry check is skipped (used by sweep routines).
func (s *DownloadSigner) Verify(token string, allowExpired bool) (DownloadClaim, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadClaim{}, fmt.Errorf("invalid token format")
	}
	exportID, ts, encodedName, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.signature(exportID, ts, encodedName)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return DownloadClaim{}, fmt.Errorf("invalid token signature")
	}

	rawName, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return DownloadClaim{}, fmt.Errorf("decode file name: %w", err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return DownloadClaim{}, fmt.Errorf("invalid timestamp")
	}

	claim := DownloadClaim{
		ExportID:  exportID,
		FileName:  string(rawName),
		ExpiresAt: time.Unix(expUnix, 0),
	}
	if !allowExpired && time.Now().After(claim.ExpiresAt) {
		return DownloadClaim{}, fmt.Errorf("token expired")
	}
	return claim, nil
}

func (s *DownloadSigner) signature(exportID, ts, encodedName string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(exportID + "|" + ts + "|" + encodedName))
	return hex.EncodeToString(mac.Sum(nil))
}
