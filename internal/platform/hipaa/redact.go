// Package hipaa holds the patient-data protection helpers: masking of
// identifiers before they reach process logs, and sealing of form snapshots
// stored at rest.
package hipaa

import "strings"

// RedactPhone keeps the country prefix and the last four digits:
// "+972501234567" becomes "+972*****4567".
func RedactPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:4] + "*****" + phone[len(phone)-4:]
}

// RedactEmail keeps the first character of the local part and the domain:
// "jane@example.com" becomes "j***@example.com".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
