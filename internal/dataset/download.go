package dataset

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultMirror serves the gzipped MNIST IDX files.
const DefaultMirror = "https://ossci-datasets.s3.amazonaws.com/mnist/"

// Files lists the four MNIST IDX files.
var Files = []string{TrainImagesFile, TrainLabelsFile, TestImagesFile, TestLabelsFile}

// Download fetches every MNIST file missing from dir (in raw or .gz form)
// from baseURL as <name>.gz. Each file is written atomically. It returns
// the names of the files it fetched. Failures are not retried and are
// reported as *DataAccessError.
func Download(ctx context.Context, client *http.Client, baseURL, dir string) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &DataAccessError{Source: dir, Err: err}
	}

	var fetched []string
	for _, name := range Files {
		if exists(filepath.Join(dir, name)) || exists(filepath.Join(dir, name+".gz")) {
			continue
		}
		url := baseURL + name + ".gz"
		if err := fetch(ctx, client, url, filepath.Join(dir, name+".gz")); err != nil {
			return fetched, &DataAccessError{Source: url, Err: err}
		}
		fetched = append(fetched, name+".gz")
	}
	return fetched, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fetch(ctx context.Context, client *http.Client, url, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("bad status: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return errors.Wrap(err, "copy body")
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), dest))
}
