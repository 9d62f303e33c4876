// Package restyutil keeps copies of the http exchanges made by a resty
// client, which is how broken selectors get debugged against real pages.
package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives one rendered exchange per response.
type Output interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates (or empties) `dir` and writes every exchange
// into it as a separate file.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write exchange dump", "id", id, "err", err)
	}
}

// Dump writes every response received by `client` to `output`. A nil output
// makes this a no-op.
func Dump(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		output.Write(exchangeID(n, res.Request.URL), FormatExchange(res))
		return nil
	})
}

func exchangeID(n uint64, link string) string {
	host := "unknown"
	parsed, err := url.Parse(link)
	if err == nil && parsed.Hostname() != "" {
		host = strings.ReplaceAll(parsed.Hostname(), ".", "_")
	}
	return fmt.Sprintf("%04d_%s.txt", n, host)
}
