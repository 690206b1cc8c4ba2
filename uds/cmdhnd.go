package uds

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

type CmdHnd struct {
	Desc  string
	Usage string
	Fn    func(ctx context.Context, args []string, w io.Writer) error
}

// CommandStore maps command words to handlers
type CommandStore struct {
	mu   sync.RWMutex
	cmds map[string]CmdHnd
}

func NewCommandStore() *CommandStore {
	return &CommandStore{cmds: make(map[string]CmdHnd)}
}

// Register panics on a duplicate or reserved name; commands are wired at startup
func (s *CommandStore) Register(name string, hnd CmdHnd) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "help" || name == "quit" {
		panic(fmt.Sprintf("uds: %q is reserved", name))
	}
	if _, dup := s.cmds[name]; dup {
		panic(fmt.Sprintf("uds: command %q registered twice", name))
	}
	s.cmds[name] = hnd
}

func (s *CommandStore) Get(name string) (CmdHnd, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hnd, ok := s.cmds[name]
	return hnd, ok
}

// Names are sorted for a stable help listing
func (s *CommandStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.cmds))
	for name := range s.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *CommandStore) writeHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "")
	for _, name := range s.Names() {
		hnd, _ := s.Get(name)
		usage := name
		if hnd.Usage != "" {
			usage = name + " " + hnd.Usage
		}
		_, _ = fmt.Fprintf(w, "%-36s %s\n", usage, hnd.Desc)
	}
	_, _ = fmt.Fprintf(w, "%-36s %s\n", "quit", "close the connection")
	_, _ = fmt.Fprintln(w, "")
}
