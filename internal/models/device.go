package models

// Host identifies the board the daemon is running on.
type Host struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`   // e.g. "debian 12.5"
	Arch     string `json:"arch"` // kernel architecture, e.g. "aarch64"
}
