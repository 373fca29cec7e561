package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// isolateAWSEnv keeps the SDK away from the developer's shared config.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	for _, name := range []string{
		"AWS_PROFILE",
		"AWS_SESSION_TOKEN",
		"AWS_ROLE_ARN",
		"AWS_WEB_IDENTITY_TOKEN_FILE",
		"AWS_CONTAINER_CREDENTIALS_RELATIVE_URI",
		"AWS_CONTAINER_CREDENTIALS_FULL_URI",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

// fakeS3 serves GetObject for one path-style object. Requests signed with the
// access key "REVOKED" are refused the way S3 refuses unknown keys.
func fakeS3(t *testing.T, path string, content []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Authorization"), "Credential=REVOKED/") {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>InvalidAccessKeyId</Code><Message>The AWS Access Key Id you provided does not exist in our records.</Message></Error>`)
			return
		}
		if r.Method != http.MethodGet || r.URL.Path != path {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestS3ClientFactoryFetch(t *testing.T) {
	isolateAWSEnv(t)
	srv := fakeS3(t, "/bucket/receipts/r.jpg", []byte("image"))

	req := Request{Bucket: "bucket", Key: "receipts/r.jpg", AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret", Region: DefaultRegion}
	client, err := S3ClientFactory(false, srv.URL)(context.Background(), req)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	data, err := fetch(context.Background(), client, req.Bucket, req.Key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "image" {
		t.Fatalf("data = %q", data)
	}
}

func TestS3ClientFactoryRejectedKey(t *testing.T) {
	isolateAWSEnv(t)
	srv := fakeS3(t, "/bucket/r.jpg", []byte("image"))

	req := Request{Bucket: "bucket", Key: "r.jpg", AccessKeyID: "REVOKED", SecretAccessKey: "secret", Region: DefaultRegion}
	res := New(WithClientFactory(S3ClientFactory(false, srv.URL))).Send(context.Background(), req)

	if res.Kind != KindCredentials {
		t.Fatalf("result = %+v", res)
	}
}

func TestS3ClientFactoryMissingKey(t *testing.T) {
	isolateAWSEnv(t)
	srv := fakeS3(t, "/bucket/r.jpg", []byte("image"))

	req := Request{Bucket: "bucket", Key: "other.jpg", AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret", Region: DefaultRegion}
	res := New(WithClientFactory(S3ClientFactory(false, srv.URL))).Send(context.Background(), req)

	if res.Kind != KindStorage {
		t.Fatalf("result = %+v", res)
	}
}

func TestS3ClientFactoryNoCredentials(t *testing.T) {
	isolateAWSEnv(t)

	_, err := S3ClientFactory(false, "")(context.Background(), Request{Region: DefaultRegion})
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}

func TestS3ClientFactoryDefaultChain(t *testing.T) {
	isolateAWSEnv(t)

	if _, err := S3ClientFactory(true, "")(context.Background(), Request{Region: DefaultRegion}); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("empty chain: err = %v, want ErrNoCredentials", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDFROMENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	if _, err := S3ClientFactory(true, "")(context.Background(), Request{Region: DefaultRegion}); err != nil {
		t.Fatalf("env chain: %v", err)
	}
}
