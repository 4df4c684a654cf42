package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type TransitionsResponse struct {
	Current string   `json:"current"`
	Allowed []string `json:"allowed"`
}

type AttachmentURLResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type StatusRegistryResponse struct {
	Transitions  map[string]map[string][]string `json:"transitions"`
	ModuleAccess map[string][]string            `json:"module_access"`
}
