package sqldb

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"
)

type RawSQLStore struct {
	stmts map[string]string
}

func NewRawStore() *RawSQLStore {
	return &RawSQLStore{stmts: make(map[string]string)}
}

func (s *RawSQLStore) Set(key string, rawStmt string) {
	s.stmts[key] = rawStmt
}

func (s *RawSQLStore) Get(key string) (string, bool) {
	stmt, exists := s.stmts[key]
	return stmt, exists
}

// MustGet panics on a missing statement: statements are embedded, so a miss is a programming error
func (s *RawSQLStore) MustGet(key string) string {
	stmt, ok := s.stmts[key]
	if !ok {
		panic(fmt.Sprintf("sql statement %q not loaded", key))
	}
	return stmt
}

func (s *RawSQLStore) Len() int {
	return len(s.stmts)
}

type StoreGroupedStmtKey struct {
	Group    string
	StmtName string
}

func (k StoreGroupedStmtKey) String() string {
	return k.Group + "." + k.StmtName
}

type GroupFS struct {
	Group string
	FS    fs.FS // holds a `sql` dir
}

// LoadRawStmtsToStore reads `<name>.sql` (standard SQL with `?` placeholders)
// and `<name>.<dbtype>` (dialect override, used as-is) from every group.
func LoadRawStmtsToStore(store *RawSQLStore, dbtype string, groups ...GroupFS) error {
	prefix := PlaceholderPrefixForDBType[dbtype]
	stmtCnt := 0
	for _, groupFS := range groups {
		files, err := fs.ReadDir(groupFS.FS, "sql")
		if err != nil {
			return fmt.Errorf("failed to read embedded `sql` dir. %w", err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			filename := f.Name()
			ext := path.Ext(filename)
			name := strings.TrimSuffix(filename, ext)
			ext = strings.TrimPrefix(ext, ".")
			data, err := fs.ReadFile(groupFS.FS, path.Join("sql", filename))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", filename, err)
			}
			groupedStmtKey := StoreGroupedStmtKey{Group: groupFS.Group, StmtName: name}.String()

			switch ext {
			case dbtype:
				// exact matching file extension -> use it as-is for dialects
				store.Set(groupedStmtKey, string(data))
				stmtCnt++
			case "sql":
				if _, exists := store.Get(groupedStmtKey); !exists {
					store.Set(groupedStmtKey, ReplaceStaticPlaceholders(string(data), prefix))
					stmtCnt++
				}
			}
		}
	}
	log.Printf("[INFO][%s] %d sql raw stmts loaded for %d groups", dbtype, stmtCnt, len(groups))
	return nil
}
