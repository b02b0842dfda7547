package errors

import (
	"strings"
	"unicode"
)

// ValidateMongoURI checks that uri is a non-empty MongoDB connection string.
// Only the scheme is checked here; the driver performs full parsing.
func ValidateMongoURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return New(ErrCodeMalformedInput, "mongoUri is required")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return New(ErrCodeMalformedInput, "mongoUri must use the mongodb:// or mongodb+srv:// scheme")
	}
	return nil
}

// ValidateDatabaseName checks a database name against MongoDB's naming rules:
//   - not empty
//   - fewer than 64 bytes
//   - no spaces, control characters, or any of /\."$*<>:|?
func ValidateDatabaseName(name string) error {
	if name == "" {
		return New(ErrCodeMalformedInput, "dbName is required")
	}

	const maxLen = 63
	if len(name) > maxLen {
		return New(ErrCodeMalformedInput, "dbName too long (max %d bytes)", maxLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeMalformedInput, "dbName contains invalid characters")
		}
	}
	if i := strings.IndexAny(name, `/\."$*<>:|?`); i >= 0 {
		return New(ErrCodeMalformedInput, "dbName contains invalid character %q", name[i])
	}
	return nil
}

// ValidateConnection validates both halves of a connect request.
func ValidateConnection(uri, dbName string) error {
	if err := ValidateMongoURI(uri); err != nil {
		return err
	}
	return ValidateDatabaseName(dbName)
}

// ValidateWorkflowID rejects empty or oversized workflow identifiers.
func ValidateWorkflowID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedInput, "workflow id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeMalformedInput, "workflow id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeMalformedInput, "workflow id contains invalid control characters")
		}
	}
	return nil
}
