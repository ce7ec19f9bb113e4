package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"paybridge/internal/models"
)

var (
	ErrChecksumMismatch     = errors.New("payment: checksum verification failed")
	ErrMissingCallbackField = errors.New("payment: missing required callback parameter")
	ErrCallbackMismatch     = errors.New("payment: callback does not belong to payment")
)

// CallbackParams are the query parameters the gateway appends to a return URL.
// PaymentID and CartID are our own correlation values carried in the return
// URL. The checksum does not cover them, see MatchPayment.
type CallbackParams struct {
	TID       string
	Status    string
	Checksum  string
	TxnSecret string
	PaymentID string
	CartID    string
}

// Verifier authenticates redirect callbacks with the gateway access key.
type Verifier struct {
	accessKey string
}

func NewVerifier(accessKey string) *Verifier {
	return &Verifier{accessKey: accessKey}
}

// Digest returns hex(SHA256(tid + secret + status + accessKey)).
func (v *Verifier) Digest(tid, secret, status string) string {
	sum := sha256.Sum256([]byte(tid + secret + status + v.accessKey))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether checksum matches the digest of the other fields.
// The digest is lowercase hex and compared exactly. Any empty input,
// including an unset access key, is rejected.
func (v *Verifier) Verify(tid, secret, status, checksum string) bool {
	if v.accessKey == "" || tid == "" || secret == "" || status == "" || checksum == "" {
		return false
	}
	want := v.Digest(tid, secret, status)
	return subtle.ConstantTimeCompare([]byte(want), []byte(checksum)) == 1
}

// VerifyCallback checks presence of every parameter, then the checksum.
func (v *Verifier) VerifyCallback(p CallbackParams) error {
	if p.TID == "" || p.Status == "" || p.Checksum == "" || p.TxnSecret == "" || p.PaymentID == "" || p.CartID == "" {
		return ErrMissingCallbackField
	}
	if !v.Verify(p.TID, p.TxnSecret, p.Status, p.Checksum) {
		return ErrChecksumMismatch
	}
	return nil
}

// MatchPayment ties a verified callback to the record it names. The
// txn_secret must equal the one the gateway issued for that payment, and
// the cart id must match when the record knows its cart.
func MatchPayment(record *models.PaymentRecord, p CallbackParams) error {
	if record.InterfaceID == "" ||
		subtle.ConstantTimeCompare([]byte(record.InterfaceID), []byte(p.TxnSecret)) != 1 {
		return ErrCallbackMismatch
	}
	if record.CartID != "" && record.CartID != p.CartID {
		return ErrCallbackMismatch
	}
	return nil
}
