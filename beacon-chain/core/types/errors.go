package types

import "github.com/pkg/errors"

// Error taxonomy (§7). Each sentinel is compared with errors.Is; wrapping
// with errors.Wrap/Wrapf at each call boundary preserves a stack-attributable
// chain without losing the underlying Is-comparable sentinel.
var (
	// Transport.
	ErrBrokenConnection         = errors.New("broken connection")
	ErrStreamOpenTimeout        = errors.New("stream open timeout")
	ErrReadResponseTimeout      = errors.New("read response timeout")
	ErrUnexpectedEOF            = errors.New("unexpected EOF")
	ErrPotentiallyExpectedEOF   = errors.New("potentially expected EOF")

	// Framing.
	ErrInvalidResponseCode  = errors.New("invalid response code")
	ErrInvalidSnappyBytes   = errors.New("invalid snappy bytes")
	ErrInvalidSszBytes      = errors.New("invalid ssz bytes")
	ErrZeroSizePrefix       = errors.New("zero size prefix")
	ErrSizePrefixOverflow   = errors.New("size prefix overflow")
	ErrInvalidContextBytes  = errors.New("invalid context bytes")

	// Application.
	ErrInvalidInputs      = errors.New("invalid inputs")
	ErrResourceUnavailable = errors.New("resource unavailable")

	// Consensus.
	ErrDuplicate     = errors.New("duplicate block")
	ErrMissingParent = errors.New("missing parent")
	ErrUnviable      = errors.New("unviable block")
	ErrInvalidBlock  = errors.New("invalid block")
	ErrSlotInPast    = errors.New("slot in past")

	// Storage.
	ErrCorrupted = errors.New("corrupted record")
	ErrNotFound  = errors.New("not found")
)

// ReceivedErrorResponse wraps an application-level error code+message
// received from a peer over the request/response protocol (§4.9/§7).
type ReceivedErrorResponse struct {
	Code    uint8
	Message string
}

func (e *ReceivedErrorResponse) Error() string {
	return "peer error " + itoa(e.Code) + ": " + e.Message
}

func itoa(b uint8) string {
	if b == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for b > 0 {
		i--
		buf[i] = byte('0' + b%10)
		b /= 10
	}
	return string(buf[i:])
}
