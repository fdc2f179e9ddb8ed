package buildrecord

import "github.com/samber/oops"

// Error taxonomy for the codec. DecryptFailed deliberately collapses every
// modern-path rejection reason (bad MSB, self-key, null-key, AEAD failure)
// and the legacy ElGamal failure into one value — callers must not be able
// to distinguish the cause, per the oracle-resistance requirement.
var (
	ErrUnsupportedKeyType = oops.Errorf("unsupported recipient key type")
	ErrDecryptFailed      = oops.Errorf("failed to decrypt build record")
	ErrOversizedOptions   = oops.Errorf("options do not fit in the record's options budget")
	ErrIllegalState       = oops.Errorf("accessor called on a record that does not carry this field")
	ErrMalformedCleartext = oops.Errorf("cleartext length does not match a known record format")
	ErrInvalidArgument    = oops.Errorf("invalid or missing argument")
)
