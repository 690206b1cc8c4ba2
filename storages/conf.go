package storages

type Conf struct {
	Type string `json:"type"` // local, remote. empty = local

	// local
	Dir           string `json:"dir"`             // relative to AppRoot. default "uploads"
	PublicBaseURL string `json:"public_base_url"` // default "/uploads"

	// remote: Supabase-compatible storage REST API
	URL string `json:"url"`
	Key string `json:"key"`
}

// Configured reports whether a remote store has real credentials.
// Placeholder values from sample configs count as unconfigured.
func (c *Conf) Configured() bool {
	if c.Type != "remote" {
		return true
	}
	switch {
	case c.URL == "", c.Key == "":
		return false
	case c.URL == "https://your-project.supabase.co", c.Key == "your-anon-key":
		return false
	}
	return true
}
