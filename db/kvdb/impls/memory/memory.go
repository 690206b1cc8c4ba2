package memory

import (
	"context"
	"log"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ecogroup/ecgsite/db/kvdb"
)

type entry struct {
	str     string
	list    []string
	hash    map[string]string
	kind    byte // 's', 'l', 'h'
	expires time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Client is a process-local kvdb.Client for single-instance deployments and tests
type Client struct {
	Conf *kvdb.Conf

	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
}

// Ensure memory.Client implements kvdb.Client interface
var _ kvdb.Client = (*Client)(nil)

func New() *Client {
	c := &Client{Conf: &kvdb.Conf{Type: "memory"}}
	_ = c.Init()
	return c
}

func (c *Client) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]*entry)
	}
	if c.now == nil {
		c.now = time.Now
	}
	log.Println("[INFO] in-memory kv client initialized")
	return nil
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

// get returns a live entry; must hold mu
func (c *Client) get(key string) *entry {
	e, ok := c.data[key]
	if !ok {
		return nil
	}
	if e.expired(c.now()) {
		delete(c.data, key)
		return nil
	}
	return e
}

//--- Key Ops ----

func (c *Client) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key) != nil, nil
}

func (c *Client) Delete(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if c.get(k) != nil {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *Client) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(key)
	if e == nil {
		return false, nil
	}
	if expiration <= 0 {
		delete(c.data, key)
		return true, nil
	}
	e.expires = c.now().Add(expiration)
	return true, nil
}

// ScanKeys uses the sorted key offset as cursor
func (c *Client) ScanKeys(_ context.Context, cursor any, pattern string, scanBatchSize int) ([]string, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pattern == "" {
		pattern = "*"
	}
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		if c.get(k) == nil {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if cursor != nil {
		start, _ = strconv.Atoi(cursor.(string))
	}
	if start >= len(keys) {
		return nil, nil, nil
	}
	if scanBatchSize <= 0 {
		scanBatchSize = 10
	}
	end := min(start+scanBatchSize, len(keys))
	if end == len(keys) {
		return keys[start:end], nil, nil
	}
	return keys[start:end], strconv.Itoa(end), nil
}

//---- Single-value Ops ----

func (c *Client) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{kind: 's', str: value}
	if expiration > 0 {
		e.expires = c.now().Add(expiration)
	}
	c.data[key] = e
	return nil
}

func (c *Client) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != 's' {
		return "", false, kvdb.ErrWrongType
	}
	return e.str, true, nil
}

//---- List Ops ----

func (c *Client) list(key string, create bool) (*entry, error) {
	e := c.get(key)
	if e == nil {
		if !create {
			return nil, nil
		}
		e = &entry{kind: 'l'}
		c.data[key] = e
	}
	if e.kind != 'l' {
		return nil, kvdb.ErrWrongType
	}
	return e, nil
}

func (c *Client) Push(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.list(key, true)
	if err != nil {
		return err
	}
	e.list = append(e.list, value)
	return nil
}

func (c *Client) Len(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.list(key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.list)), nil
}

// bounds resolves redis-style inclusive indexes into a slice range
func bounds(n int, start, stop int64) (int, int) {
	if start < 0 {
		start += int64(n)
	}
	if stop < 0 {
		stop += int64(n)
	}
	start = max(start, 0)
	stop = min(stop, int64(n)-1)
	if start > stop {
		return 0, 0
	}
	return int(start), int(stop) + 1
}

func (c *Client) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.list(key, false)
	if err != nil || e == nil {
		return []string{}, err
	}
	from, to := bounds(len(e.list), start, stop)
	return append([]string{}, e.list[from:to]...), nil
}

func (c *Client) Trim(_ context.Context, key string, start, stop int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.list(key, false)
	if err != nil || e == nil {
		return err
	}
	from, to := bounds(len(e.list), start, stop)
	e.list = append([]string(nil), e.list[from:to]...)
	if len(e.list) == 0 {
		delete(c.data, key)
	}
	return nil
}

//---- Hash Ops ----

func (c *Client) GetField(_ context.Context, key string, field string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != 'h' {
		return "", false, kvdb.ErrWrongType
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

func (c *Client) SetFields(_ context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(key)
	if e == nil {
		e = &entry{kind: 'h', hash: make(map[string]string, len(fields))}
		c.data[key] = e
	}
	if e.kind != 'h' {
		return kvdb.ErrWrongType
	}
	for k, v := range fields {
		e.hash[k] = v
	}
	return nil
}

func (c *Client) GetAllFields(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]string{}
	e := c.get(key)
	if e == nil {
		return out, nil
	}
	if e.kind != 'h' {
		return nil, kvdb.ErrWrongType
	}
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}
