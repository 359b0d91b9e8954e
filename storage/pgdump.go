package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// PgDump liefert eine Funktion, die pg_dump gegen dsn ausführt und den Dump nach w schreibt.
// dsn darf eine URL oder ein key=value-Conninfo sein.
func PgDump(dsn string) func(ctx context.Context, w io.Writer) error {
	return func(ctx context.Context, w io.Writer) error {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--no-privileges", "--dbname", dsn)
		cmd.Stdout = w
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}
}
