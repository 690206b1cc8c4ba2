package session

const DefaultCookieName = "ecg_admin_session"

type Conf struct {
	EncryptionKey string `json:"enckey"`

	ExpireSliding int   `json:"expire_sliding"`   // seconds of inactivity before a session lapses
	ExpireHardcap int   `json:"expire_hardcap"`   // seconds since login, regardless of activity
	MaxCntPerUser int64 `json:"max_cnt_per_user"` // oldest sessions are dropped beyond this; 0 = unlimited

	CookieName     string `json:"cookie_name"`
	InsecureCookie bool   `json:"insecure_cookie"` // plain-HTTP development only

	// For Web Login Sessions
	LoginPath string `json:"login_path"`
}

func (c *Conf) cookieName() string {
	if c.CookieName == "" {
		return DefaultCookieName
	}
	return c.CookieName
}
