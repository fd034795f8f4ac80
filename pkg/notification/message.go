package notification

import "strings"

const notAvailable = "Not available"

// AlertBody renders the SMS-sized alert text.
func AlertBody(name, location string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown User"
	}
	location = strings.TrimSpace(location)
	if location == "" {
		location = notAvailable
	}
	return "EMERGENCY: " + name + " needs help! Location: " + location +
		". Call immediately or contact emergency services."
}
