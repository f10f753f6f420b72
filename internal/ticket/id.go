package ticket

import "github.com/google/uuid"

const (
	IDPrefix      = "TICKET-"
	idFragmentLen = 8
)

// NewTicketID keeps the first 8 characters of a random UUID. In the canonical
// form those precede the first hyphen, so the fragment is always lowercase hex.
func NewTicketID() string {
	return IDPrefix + uuid.NewString()[:idFragmentLen]
}
