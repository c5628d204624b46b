package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/genoportal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour both backends must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "gene_AD_Microglia_1.csv", strings.NewReader("hgnc_symbol\nAPOE\n"), PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"title": "Search Results (AD, Microglia)"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gene_AD_Microglia_1.csv", info.Key)
	assert.Equal(t, int64(17), info.Size)

	_, err = store.Put(ctx, "gene_AD_Microglia_1.csv", strings.NewReader("again"), PutOptions{})
	assert.Error(t, err, "existing keys are never overwritten")

	_, err = store.Put(ctx, "tf_AD_Microglia_2.csv", strings.NewReader("tf\nSPI1\n"), PutOptions{ContentType: "text/csv"})
	require.NoError(t, err)

	head, err := store.Head(ctx, "gene_AD_Microglia_1.csv")
	require.NoError(t, err)
	assert.Equal(t, "Search Results (AD, Microglia)", head.Metadata["title"])
	assert.Equal(t, "text/csv", head.ContentType)

	got, body, err := store.Get(ctx, "gene_AD_Microglia_1.csv")
	require.NoError(t, err)
	content, err := io.ReadAll(body)
	require.NoError(t, body.Close())
	require.NoError(t, err)
	assert.Contains(t, string(content), "hgnc_symbol\nAPOE\n")
	assert.Equal(t, head.Metadata, got.Metadata)

	list, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "gene_AD_Microglia_1.csv", list[0].Key)
	assert.Equal(t, "tf_AD_Microglia_2.csv", list[1].Key)

	list, err = store.List(ctx, "tf_")
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := store.Delete(ctx, "gene_AD_Microglia_1.csv")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "gene_AD_Microglia_1.csv")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Head(ctx, "gene_AD_Microglia_1.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Get(ctx, "gene_AD_Microglia_1.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFS, store.Driver())

	exerciseStore(t, store)
}

func TestFSStore_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.csv", "/etc/passwd", `a\b.csv`, "x.csv.meta"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{})
		assert.Error(t, err, key)
	}
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string]fakeObject{}}
	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:          "exports-bucket",
		Prefix:          "/exports/",
		Region:          "eu-west-1",
		Endpoint:        "https://s3.test.local",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: fake},
	})
	require.NoError(t, err)
	assert.Equal(t, DriverS3, store.Driver())

	exerciseStore(t, store)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for key := range fake.objects {
		assert.True(t, strings.HasPrefix(key, "exports/"), key)
	}
}

func TestNew(t *testing.T) {
	store, err := New(context.Background(), config.ExportConfig{Driver: DriverFS, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFS, store.Driver())

	_, err = New(context.Background(), config.ExportConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.ExportConfig{Driver: DriverS3})
	assert.Error(t, err, "bucket is required")
}

type fakeObject struct {
	body        []byte
	contentType string
}

// fakeS3 answers the handful of S3 REST calls the store makes, for a single
// path-style bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req.URL.Query().Get("prefix")), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		return response(http.StatusOK, "", http.Header{"Etag": {`"etag"`}}), nil
	case http.MethodGet, http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return response(http.StatusNotFound,
				`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		header := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Last-Modified":  {"Mon, 01 Jan 2024 00:00:00 GMT"},
		}
		if req.Method == http.MethodHead {
			return response(http.StatusOK, "", header), nil
		}
		return response(http.StatusOK, string(obj.body), header), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return response(http.StatusNoContent, "", http.Header{}), nil
	}
	return response(http.StatusNotImplemented, "", http.Header{}), nil
}

func (f *fakeS3) list(prefix string) *http.Response {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>exports-bucket</Name><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return response(http.StatusOK, b.String(), http.Header{"Content-Type": {"application/xml"}})
}

func response(status int, body string, header http.Header) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
	}
}
