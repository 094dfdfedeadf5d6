package ticket

import (
	"fmt"

	"github.com/google/uuid"

	"campusticketing/internal/domain"
)

type uuidMinter struct{}

// NewUUIDMinter returns a RegistrationTokenMinter producing random (version 4) UUIDs.
// The randomness comes from crypto/rand, so tokens are not derivable from the
// student or event and cannot be enumerated from a leaked one.
func NewUUIDMinter() domain.RegistrationTokenMinter {
	return uuidMinter{}
}

func (uuidMinter) Mint() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to mint registration token: %w", err)
	}
	return id.String(), nil
}
