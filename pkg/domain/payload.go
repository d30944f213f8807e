package domain

// Payload is the JSON document the service worker renders as a notification.
type Payload struct {
	Title              string       `json:"title"`
	Body               string       `json:"body"`
	Badge              string       `json:"badge,omitempty"`
	Icon               string       `json:"icon,omitempty"`
	Image              string       `json:"image,omitempty"`
	Tag                string       `json:"tag,omitempty"`
	RequireInteraction bool         `json:"requireInteraction"`
	Silent             bool         `json:"silent,omitempty"`
	Actions            []Action     `json:"actions,omitempty"`
	Data               *PayloadData `json:"data,omitempty"`
}

// PayloadData is handed to the notification click handler.
type PayloadData struct {
	URL string `json:"url,omitempty"`
}

// Action is a notification button. The service worker issues a GET to Action
// when the button is clicked.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}
