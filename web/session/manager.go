package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ecogroup/ecgsite/db/kvdb"
	"github.com/ecogroup/ecgsite/sec"
)

const (
	defaultExpireSliding = 30 * 60
	defaultExpireHardcap = 12 * 60 * 60
)

var ErrNoSession = errors.New("no valid web session")

// Info is what a live session knows about its owner
type Info struct {
	Subject    string    `json:"subject"`
	CreatedAt  time.Time `json:"created_at"`
	ValidUntil time.Time `json:"valid_until"`
	key        string
}

type Manager struct {
	Conf              Conf
	Cipher            *sec.XChaCha20Poly1305Cipher
	AppName           string // for session key, etc.
	BackendKVDBClient kvdb.Client
	Now               func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) sliding() time.Duration {
	if m.Conf.ExpireSliding <= 0 {
		return defaultExpireSliding * time.Second
	}
	return time.Duration(m.Conf.ExpireSliding) * time.Second
}

func (m *Manager) hardcap() time.Duration {
	if m.Conf.ExpireHardcap <= 0 {
		return defaultExpireHardcap * time.Second
	}
	return time.Duration(m.Conf.ExpireHardcap) * time.Second
}

// CookieName is the name of the cookie carrying the encrypted session id
func (m *Manager) CookieName() string { return m.Conf.cookieName() }

// WebSessionIDToKVDBKey never stores the raw id, so a dumped KV DB cannot be replayed as cookies
func (m *Manager) WebSessionIDToKVDBKey(sessionID string) string {
	return m.AppName + "_wsession:" + sec.HashHexSHA256(sessionID)
}

func (m *Manager) subjectKey(subject string) string {
	return m.AppName + "_wsessions_of:" + subject
}

// Create starts a session for subject and sets its cookie
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, subject string) (*Info, error) {
	sessionID, err := GenerateWebSessionID()
	if err != nil {
		return nil, err
	}
	now := m.now()
	info := &Info{
		Subject:    subject,
		CreatedAt:  now,
		ValidUntil: now.Add(m.hardcap()),
		key:        m.WebSessionIDToKVDBKey(sessionID),
	}
	err = m.BackendKVDBClient.SetFields(ctx, info.key, map[string]string{
		"sub":         subject,
		"created":     strconv.FormatInt(now.Unix(), 10),
		"valid_until": strconv.FormatInt(info.ValidUntil.Unix(), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("storing web session: %w", err)
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, info.key, m.sliding()); err != nil {
		return nil, fmt.Errorf("expiring web session: %w", err)
	}
	if err = m.enforceMaxPerUser(ctx, subject, info.key); err != nil {
		log.Printf("[WARN][SESSION] cannot enforce session limit for %q: %v", subject, err)
	}
	if err = m.SetWebSessionCookie(w, sessionID); err != nil {
		return nil, err
	}
	log.Printf("[INFO][SESSION] session started for %q", subject)
	return info, nil
}

func (m *Manager) enforceMaxPerUser(ctx context.Context, subject string, key string) error {
	if m.Conf.MaxCntPerUser <= 0 {
		return nil
	}
	kv := m.BackendKVDBClient
	listKey := m.subjectKey(subject)
	if err := kv.Push(ctx, listKey, key); err != nil {
		return err
	}
	if _, err := kv.Expire(ctx, listKey, m.hardcap()); err != nil {
		return err
	}
	n, err := kv.Len(ctx, listKey)
	if err != nil {
		return err
	}
	excess := n - m.Conf.MaxCntPerUser
	if excess <= 0 {
		return nil
	}
	stale, err := kv.Range(ctx, listKey, 0, excess-1)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		if _, err = kv.Delete(ctx, stale...); err != nil {
			return err
		}
	}
	return kv.Trim(ctx, listKey, excess, -1)
}

func (m *Manager) sessionIDFromCookie(r *http.Request) (string, error) {
	webSessionCookie, err := r.Cookie(m.CookieName())
	if err != nil {
		return "", ErrNoSession
	}
	webSessionID, err := m.Cipher.DecodeDecryptWith(webSessionCookie.Value, []byte(m.CookieName()))
	if err != nil {
		return "", ErrNoSession
	}
	return string(webSessionID), nil
}

// Lookup resolves the request's session cookie and slides its expiry.
// ErrNoSession covers a missing, forged or lapsed session.
func (m *Manager) Lookup(ctx context.Context, r *http.Request) (*Info, error) {
	sessionID, err := m.sessionIDFromCookie(r)
	if err != nil {
		return nil, err
	}
	key := m.WebSessionIDToKVDBKey(sessionID)
	fields, err := m.BackendKVDBClient.GetAllFields(ctx, key)
	if err != nil {
		return nil, err
	}
	info, ok := parseInfo(fields)
	if !ok {
		return nil, ErrNoSession
	}
	info.key = key
	now := m.now()
	remaining := info.ValidUntil.Sub(now)
	if remaining <= 0 {
		_, _ = m.BackendKVDBClient.Delete(ctx, key)
		return nil, ErrNoSession
	}
	if remaining > m.sliding() {
		remaining = m.sliding()
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, key, remaining); err != nil {
		return nil, err
	}
	return info, nil
}

func parseInfo(fields map[string]string) (*Info, bool) {
	sub := fields["sub"]
	created, err1 := strconv.ParseInt(fields["created"], 10, 64)
	validUntil, err2 := strconv.ParseInt(fields["valid_until"], 10, 64)
	if sub == "" || err1 != nil || err2 != nil {
		return nil, false
	}
	return &Info{
		Subject:    sub,
		CreatedAt:  time.Unix(created, 0),
		ValidUntil: time.Unix(validUntil, 0),
	}, true
}

// Destroy ends the request's session, if any, and clears the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.RemoveWebSessionCookie(w)
	sessionID, err := m.sessionIDFromCookie(r)
	if err != nil {
		return nil
	}
	_, err = m.BackendKVDBClient.Delete(ctx, m.WebSessionIDToKVDBKey(sessionID))
	return err
}

// Sweep deletes sessions past their hard cap; backends without TTLs rely on it
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	keys, err := kvdb.ScanAll(ctx, m.BackendKVDBClient, m.AppName+"_wsession:*")
	if err != nil {
		return 0, err
	}
	now := m.now().Unix()
	var stale []string
	for _, key := range keys {
		v, found, err := m.BackendKVDBClient.GetField(ctx, key, "valid_until")
		if err != nil {
			if errors.Is(err, kvdb.ErrWrongType) {
				stale = append(stale, key)
				continue
			}
			return 0, err
		}
		if !found {
			continue // vanished between scan and read
		}
		if until, perr := strconv.ParseInt(v, 10, 64); perr != nil || until <= now {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	n, err := m.BackendKVDBClient.Delete(ctx, stale...)
	return int(n), err
}

func (m *Manager) SetWebSessionCookie(w http.ResponseWriter, webSessionID string) error {
	encWebSessionID, err := m.Cipher.EncryptEncodeWith([]byte(webSessionID), []byte(m.CookieName()))
	if err != nil {
		return fmt.Errorf("failed to encrypt web login session id. %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(),
		Value:    encWebSessionID,
		Path:     "/",
		HttpOnly: true, // JS cannot read it
		Secure:   !m.Conf.InsecureCookie,
		MaxAge:   int(m.hardcap() / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) RemoveWebSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(),
		Path:     "/",
		MaxAge:   -1, // Delete
		HttpOnly: true,
		Secure:   !m.Conf.InsecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
