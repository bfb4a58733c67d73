package logger

// RedactCustomerID masks a customer identifier for safe logging.
// "78afa995795e4d85b5d9ceeca43f5fef" → "78af***"
// Short identifiers (≤4 chars) are fully masked.
func RedactCustomerID(id string) string {
	if len(id) <= 4 {
		return "***"
	}
	return id[:4] + "***"
}
