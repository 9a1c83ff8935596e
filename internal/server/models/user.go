package models

// User is the read-only profile slice consumed for watermark payloads.
// Identity issuance and profile management live elsewhere.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Phone       string
}
