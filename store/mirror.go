package store

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// mirrorMaxAge is the lifetime of mirrored cookies: 7 days in seconds.
const mirrorMaxAge = 604800

// writerKey carries the id of the process that last rewrote the mirror, so
// watchers can tell their own writes from external ones.
const writerKey = "ss_writer"

// CookieMirror keeps a serialized copy of every stored session key as a
// Set-Cookie line in a single file. Request-time consumers (middleware in a
// server-rendered process, the external-invalidation watcher) read session
// presence from this file without going through the backend chain.
//
// Cookies are written with Path=/, Max-Age=604800 and SameSite=Lax, matching
// what a browser surface would hand to server middleware.
type CookieMirror struct {
	path     string
	writerID string

	mu      sync.Mutex
	cookies map[string]string
}

// NewCookieMirror creates a mirror persisted at path. writerID identifies
// this process in the mirror file; it should be unique per Store instance.
func NewCookieMirror(path, writerID string) (*CookieMirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating mirror dir: %w", err)
	}

	m := &CookieMirror{
		path:     path,
		writerID: writerID,
		cookies:  make(map[string]string),
	}

	existing, _, err := ReadMirror(path)
	if err == nil {
		m.cookies = existing
	}

	return m, nil
}

// Path returns the mirror file location.
func (m *CookieMirror) Path() string { return m.path }

// Set mirrors key=value and rewrites the file.
func (m *CookieMirror) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cookies[key] = value
	return m.flushLocked()
}

// Delete removes key from the mirror and rewrites the file.
func (m *CookieMirror) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cookies, key)
	return m.flushLocked()
}

// Clear removes every mirrored key. Idempotent.
func (m *CookieMirror) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cookies = make(map[string]string)
	return m.flushLocked()
}

// Cookies returns the current mirror content as http cookies, ready to be
// attached to a response by a server-rendered surface.
func (m *CookieMirror) Cookies() []*http.Cookie {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*http.Cookie, 0, len(m.cookies))
	for k, v := range m.cookies {
		out = append(out, mirrorCookie(k, v))
	}
	return out
}

func mirrorCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   mirrorMaxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

// flushLocked rewrites the mirror file atomically (tmp + rename) with one
// Set-Cookie line per key plus the writer-id line.
func (m *CookieMirror) flushLocked() error {
	var b strings.Builder
	b.WriteString(mirrorCookie(writerKey, m.writerID).String())
	b.WriteByte('\n')
	for k, v := range m.cookies {
		b.WriteString(mirrorCookie(k, v).String())
		b.WriteByte('\n')
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), stateFilePerm); err != nil {
		return fmt.Errorf("writing mirror: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing mirror: %w", err)
	}
	return nil
}

// ReadMirror parses a mirror file into its key set and the writer id of the
// process that last rewrote it. A missing file is an empty mirror, not an
// error: absence of the file means absence of a session.
func ReadMirror(path string) (map[string]string, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading mirror: %w", err)
	}

	cookies := make(map[string]string)
	writer := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		if c.Name == writerKey {
			writer = c.Value
			continue
		}
		cookies[c.Name] = c.Value
	}

	return cookies, writer, nil
}
