package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex sync.Mutex
	files map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.files[id] = contents
}

func TestDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("<html>booster box</html>"))
	}))
	defer srv.Close()

	out := &memoryOutput{files: map[string]string{}}
	client := resty.New()
	Dump(client, out)

	_, err := client.R().Get(srv.URL + "/shelf")
	require.NoError(t, err)
	_, err = client.R().Get(srv.URL + "/shelf")
	require.NoError(t, err)

	require.Len(t, out.files, 2)
	contents, ok := out.files["0001_127_0_0_1.txt"]
	require.True(t, ok)
	require.Contains(t, contents, "GET "+srv.URL+"/shelf")
	require.Contains(t, contents, "X-Test: yes")
	require.True(t, strings.HasSuffix(contents, "<html>booster box</html>"))
}

func TestDumpNilOutput(t *testing.T) {
	client := resty.New()
	Dump(client, nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	out.Write("0001_example_com.txt", "hello")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0001_example_com.txt", entries[0].Name())
}
