package ticket

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const StatusCreated = "Created"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Ticket is the confirmation returned to the customer. It only lives for the
// duration of one request.
type Ticket struct {
	ID        string    `json:"ticketId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Issue     string    `json:"issue"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateTicketRequest fields are echoed verbatim, so they are not trimmed and
// email is not format checked.
type CreateTicketRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Issue string `json:"issue" validate:"required"`
}

func (r CreateTicketRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return ErrMissingFields
	}
	return nil
}
