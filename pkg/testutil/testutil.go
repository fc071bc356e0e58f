// Package testutil provides helpers shared by chunkframe tests
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a context with a 30-second timeout, canceled when the
// test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside a fresh temp dir and returns the path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Cuts splits data at the given byte offsets
func Cuts(data string, at ...int) []string {
	var out []string
	prev := 0
	for _, a := range at {
		out = append(out, data[prev:a])
		prev = a
	}
	return append(out, data[prev:])
}

var names = []string{"alpha", "beta", "gamma", "delta, inc", "epsilon"}

// GenerateCSV returns a deterministic delimited document with a header
// (id,name,value,score) and the given number of rows. It mixes the cases a
// parser must survive: quoted separators, empty cells, NA tokens, scientific
// notation, malformed numbers and \r\n line endings.
func GenerateCSV(rows int, seed int64) string {
	r := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("id,name,value,score\n")
	for i := 0; i < rows; i++ {
		name := names[r.Intn(len(names))]
		if strings.Contains(name, ",") {
			name = `"` + name + `"`
		}

		var value string
		switch r.Intn(10) {
		case 0:
			value = ""
		case 1:
			value = "NA"
		case 2:
			value = fmt.Sprintf("%.3e", r.NormFloat64()*1e5)
		case 3:
			value = "n/a?"
		default:
			value = fmt.Sprintf("%.4f", r.Float64()*100)
		}

		eol := "\n"
		if r.Intn(4) == 0 {
			eol = "\r\n"
		}
		fmt.Fprintf(&b, "%d,%s,%s,%d%s", i, name, value, r.Intn(1000)-500, eol)
	}
	return b.String()
}
