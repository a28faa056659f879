package pkg

import "github.com/google/uuid"

// GenerateNewSessionID - returns a random id for the session cookie.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// IsValidSessionID - reports whether id came from GenerateNewSessionID.
func IsValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
