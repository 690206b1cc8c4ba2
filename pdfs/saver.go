package pdfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver receives a finished document under its download name
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) error
}

type SaverFunc func(ctx context.Context, filename string, data []byte) error

func (f SaverFunc) Save(ctx context.Context, filename string, data []byte) error {
	return f(ctx, filename, data)
}

// DirSaver writes documents into Dir. The file appears under its final name only once fully written.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(ctx context.Context, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.Dir, ".pdf-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(d.Dir, filename))
}

// Path is where Save puts filename
func (d DirSaver) Path(filename string) string {
	return filepath.Join(d.Dir, filename)
}

// BufferSaver keeps the last saved document in memory
type BufferSaver struct {
	Filename string
	Data     []byte
	Saves    int
}

func (b *BufferSaver) Save(_ context.Context, filename string, data []byte) error {
	b.Filename = filename
	b.Data = append(b.Data[:0], data...)
	b.Saves++
	return nil
}
