package handlers

// LogRequest is the request body for recording an event.
type LogRequest struct {
	Body struct {
		Action string   `doc:"Namespace for the key"                          example:"login"          json:"action,omitempty"`
		Key    string   `doc:"Logical key, e.g. a user id or address"         example:"user-42"        json:"key"              minLength:"1"`
		Limits []string `doc:"Limits in the form <N>/<unit>, unit s, m, h, d" json:"limits"           minItems:"1"`
		Data   any      `doc:"Passed to near-limit notifications"             json:"data,omitempty"`
	}
}

// LogResponse reports whether the event was admitted.
type LogResponse struct {
	Body struct {
		Allowed bool `doc:"False when a limit rejected the event" json:"allowed"`
	}
}

// PingResponse is the response of the rate limited demo route.
type PingResponse struct {
	Body struct {
		Message string `example:"pong" json:"message"`
	}
}
