package uds

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Send runs a single command line against the socket at sockPath and copies the reply to out
func Send(ctx context.Context, sockPath string, line string, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", sockPath)
	if err != nil {
		return fmt.Errorf("dial %q: %w", sockPath, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(5 * time.Minute))
	}
	line = strings.TrimSpace(line)
	if _, err = fmt.Fprintf(conn, "%s\nquit\n", line); err != nil {
		return err
	}
	_, err = io.Copy(out, conn)
	return err
}
