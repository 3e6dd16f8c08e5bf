package uploadgate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brickify/web/internal/models"
)

const (
	// DefaultMaxBytes is the largest accepted upload (5 MiB).
	DefaultMaxBytes int64 = 5 * 1024 * 1024
	// DefaultAcceptPrefix is the required prefix of the declared media type.
	DefaultAcceptPrefix = "image/"
)

// User-facing messages.
const (
	MsgNotImage = "please upload an image"
	MsgBusy     = "an image is already being analyzed"
	MsgGeneric  = "error while analyzing the image"
)

// Reason identifies which acceptance rule rejected a file.
type Reason string

const (
	ReasonType Reason = "type"
	ReasonSize Reason = "size"
)

// ErrBusy is returned when a submission arrives while another is in flight.
var ErrBusy = errors.New("upload already in progress")

// RejectError is returned when a file fails the acceptance policy. The
// handler is never invoked for a rejected file.
type RejectError struct {
	Reason  Reason
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("file rejected (%s): %s", e.Reason, e.Message)
}

// Policy is the acceptance policy applied before a file reaches the handler.
type Policy struct {
	AcceptPrefix string
	MaxBytes     int64
}

// DefaultPolicy accepts images up to 5 MiB.
func DefaultPolicy() Policy {
	return Policy{
		AcceptPrefix: DefaultAcceptPrefix,
		MaxBytes:     DefaultMaxBytes,
	}
}

// Validate applies the rules in order; the first failure wins.
func (p Policy) Validate(file models.SelectedFile) error {
	if !strings.HasPrefix(file.ContentType, p.AcceptPrefix) {
		return &RejectError{Reason: ReasonType, Message: MsgNotImage}
	}
	if file.Size > p.MaxBytes {
		return &RejectError{Reason: ReasonSize, Message: p.tooLargeMessage()}
	}
	return nil
}

func (p Policy) tooLargeMessage() string {
	const mib = 1024 * 1024
	if p.MaxBytes >= mib && p.MaxBytes%mib == 0 {
		return fmt.Sprintf("image must not exceed %dMB", p.MaxBytes/mib)
	}
	return fmt.Sprintf("image must not exceed %d bytes", p.MaxBytes)
}

// UserMessage maps any error produced by a Gate to the text shown to the
// user. Handler failures all collapse to the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var rej *RejectError
	if errors.As(err, &rej) {
		return rej.Message
	}
	if errors.Is(err, ErrBusy) {
		return MsgBusy
	}
	return MsgGeneric
}
