package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

func testArtifact() *Artifact {
	return &Artifact{
		RunID:       NewRunID(),
		Repository:  "octo/widgets",
		Filename:    "NOTICE",
		Format:      notice.FormatText,
		Content:     "Third party notices\n",
		Mode:        "full",
		Coordinates: []string{"npm/npmjs/-/left-pad/1.3.0"},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("run ids repeat")
	}
	if !ValidRunID(a) {
		t.Errorf("ValidRunID(%q) = false", a)
	}
	if ValidRunID("not-a-uuid") {
		t.Error("ValidRunID accepted garbage")
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir)
	a := testArtifact()

	loc, err := sink.Put(context.Background(), a)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if loc != filepath.Join(dir, "NOTICE") {
		t.Errorf("location = %s", loc)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != a.Content {
		t.Errorf("content = %q", data)
	}

	// A second run replaces the file.
	a.Content = "updated"
	if _, err := sink.Put(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(loc)
	if string(data) != "updated" {
		t.Errorf("content after overwrite = %q", data)
	}
	if _, err := os.Stat(loc + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestFileSinkRejectsPaths(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	for _, name := range []string{"", "../NOTICE", "sub/NOTICE", ".."} {
		a := testArtifact()
		a.Filename = name
		if _, err := sink.Put(context.Background(), a); !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("Put(%q) error = %v, want %s", name, err, errors.ErrCodeInvalidPath)
		}
	}
}

func TestNewFileSinkDefaultDir(t *testing.T) {
	if got := NewFileSink("").Dir; got != "." {
		t.Errorf("Dir = %q, want .", got)
	}
}

func TestObjectKey(t *testing.T) {
	a := testArtifact()
	a.RunID = "3f1c"
	key, err := objectKey(a)
	if err != nil {
		t.Fatal(err)
	}
	if key != "octo/widgets/3f1c/NOTICE" {
		t.Errorf("key = %s", key)
	}

	a.RunID = ""
	if _, err := objectKey(a); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing run id: %v", err)
	}

	a.RunID = "x"
	a.Repository = "../etc"
	if _, err := objectKey(a); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal: %v", err)
	}
}

func TestNewS3SinkValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
	}{
		{"no endpoint", S3Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"no keys", S3Config{Endpoint: "localhost:9000", Bucket: "b"}},
		{"no bucket", S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Sink(tt.cfg); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v", err)
			}
		})
	}

	s, err := NewS3Sink(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if s.region != "us-east-1" || s.Name() != "s3" {
		t.Errorf("sink = %+v", s)
	}
}

func TestContentType(t *testing.T) {
	if got := contentType(notice.FormatHTML); !strings.HasPrefix(got, "text/html") {
		t.Errorf("html = %s", got)
	}
	if got := contentType(notice.FormatJSON); got != "application/json" {
		t.Errorf("json = %s", got)
	}
	if got := contentType(""); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("default = %s", got)
	}
}

func TestS3SinkIntegration(t *testing.T) {
	endpoint := os.Getenv("STACKNOTICE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("STACKNOTICE_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Sink(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("STACKNOTICE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("STACKNOTICE_TEST_S3_SECRET_KEY"),
		Bucket:    "stacknotice-test",
	})
	if err != nil {
		t.Fatal(err)
	}
	a := testArtifact()
	loc, err := s.Put(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(loc, a.RunID+"/NOTICE") {
		t.Errorf("location = %s", loc)
	}
}

func TestMongoSinkIntegration(t *testing.T) {
	uri := os.Getenv("STACKNOTICE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STACKNOTICE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoSink(ctx, MongoConfig{URI: uri, Database: "stacknotice_test"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)

	a := testArtifact()
	if _, err := s.Put(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, err := s.Find(ctx, a.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != a.Content || got.Repository != a.Repository || len(got.Coordinates) != 1 {
		t.Errorf("Find() = %+v", got)
	}
	if _, err := s.Find(ctx, NewRunID()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing run: %v", err)
	}
}

func TestNewMongoSinkRequiresURI(t *testing.T) {
	if _, err := NewMongoSink(context.Background(), MongoConfig{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v", err)
	}
}
