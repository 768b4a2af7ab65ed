package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Signer computes HMAC-SHA256 signatures over persisted snapshots. A nil
// *Signer is valid and signs nothing.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if secretKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Enabled() bool {
	return s != nil && len(s.secretKey) > 0
}

func (s *Signer) Sign(data []byte) string {
	if !s.Enabled() {
		return ""
	}
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("payload_bytes", len(data)),
			slog.Bool("signature_present", signature != ""))
		return false, fmt.Errorf("invalid signature")
	}

	return true, nil
}

// SignParts signs an ordered list of byte slices. Each part is length
// prefixed so that moving bytes between parts changes the signature.
func (s *Signer) SignParts(parts ...[]byte) string {
	return s.Sign(joinParts(parts))
}

func (s *Signer) VerifyParts(signature string, parts ...[]byte) (bool, error) {
	return s.Verify(joinParts(parts), signature)
}

func joinParts(parts [][]byte) []byte {
	var buf []byte
	for _, p := range parts {
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(p)))
		buf = append(buf, p...)
	}
	return buf
}
