package cli

import (
	"fmt"
	"regexp"
	"strings"
)

const memberPrefix = "MEM-"

var digitsOnly = regexp.MustCompile(`^\d+$`)

// validateMemberID checks that id uses the MEM-xxx format.
// Returns an error with a helpful message if the ID appears to be a short ID.
func validateMemberID(id string) error {
	if id == "" {
		return nil // Empty is OK, let the service decide whether it is required
	}

	if strings.HasPrefix(id, memberPrefix) {
		return nil
	}

	if digitsOnly.MatchString(id) {
		padded := id
		if len(padded) < 3 {
			padded = strings.Repeat("0", 3-len(padded)) + padded
		}
		return fmt.Errorf("invalid member ID '%s'. Use full ID format: %s%s", id, memberPrefix, padded)
	}

	// Check if it's using wrong case
	if strings.HasPrefix(strings.ToUpper(id), memberPrefix) {
		return fmt.Errorf("invalid member ID '%s'. IDs are case-sensitive, use: %s", id, strings.ToUpper(id))
	}

	return fmt.Errorf("invalid member ID '%s'. Expected format: %sxxx (see 'rota member list')", id, memberPrefix)
}
