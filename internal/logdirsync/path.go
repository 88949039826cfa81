// Package logdirsync copies a run's TensorBoard log directory to local or
// cloud storage.
package logdirsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	// Imported for the side-effect of registering blob.OpenBucket() providers.
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/wandb/tblogger/internal/paths"
)

// LocalOrCloudPath is a directory on the local filesystem or a prefix in a
// cloud bucket. Exactly one field is set.
type LocalOrCloudPath struct {
	CloudPath *CloudPath
	LocalPath *paths.AbsolutePath
}

func (p *LocalOrCloudPath) String() string {
	switch {
	case p.CloudPath != nil:
		return p.CloudPath.String()
	case p.LocalPath != nil:
		return string(*p.LocalPath)
	default:
		return "<nil>"
	}
}

// LogValue implements slog.LogValuer.
func (p *LocalOrCloudPath) LogValue() slog.Value {
	return slog.StringValue(p.String())
}

// CloudPath is a prefix in a cloud storage bucket.
type CloudPath struct {
	// Scheme is a go-cloud scheme: "s3", "gs" or "azblob".
	Scheme string

	BucketName string

	// Prefix is a slash-separated key prefix without a trailing slash,
	// possibly empty.
	Prefix string
}

func (p *CloudPath) String() string {
	return fmt.Sprintf("%s://%s/%s", p.Scheme, p.BucketName, p.Prefix)
}

// ParsePath parses an upload destination.
//
// Supported formats, matching TensorBoard's own:
//
//   - Amazon S3: "s3://bucket/some/prefix"
//   - GCS: "gs://bucket/some/prefix"
//   - Microsoft Azure: "az://account/container/some/prefix"
//
// Anything else is a local filesystem path.
func ParsePath(rawPath string) (*LocalOrCloudPath, error) {
	isS3 := strings.HasPrefix(rawPath, "s3://")
	isGS := strings.HasPrefix(rawPath, "gs://")
	isAZ := strings.HasPrefix(rawPath, "az://")

	if !isS3 && !isGS && !isAZ {
		path, err := paths.Absolute(rawPath)
		if err != nil {
			return nil, fmt.Errorf("failed to make path absolute: %v", err)
		}
		return &LocalOrCloudPath{LocalPath: path}, nil
	}

	parsed, err := url.Parse(rawPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cloud URL: %v", err)
	}
	trimmed := strings.Trim(parsed.EscapedPath(), "/")

	switch {
	case isS3:
		return &LocalOrCloudPath{CloudPath: &CloudPath{
			Scheme:     "s3",
			BucketName: parsed.Host,
			Prefix:     trimmed,
		}}, nil

	case isGS:
		return &LocalOrCloudPath{CloudPath: &CloudPath{
			Scheme:     "gs",
			BucketName: parsed.Host,
			Prefix:     trimmed,
		}}, nil

	default:
		// The URL host is the storage account, which Azure reads from
		// AZURE_STORAGE_ACCOUNT; the container is the first path component.
		parts := strings.Split(trimmed, "/")
		if len(parts) < 1 || parts[0] == "" {
			return nil, fmt.Errorf("invalid Azure URL, no container: %q", rawPath)
		}
		return &LocalOrCloudPath{CloudPath: &CloudPath{
			Scheme:     "azblob",
			BucketName: parts[0],
			Prefix:     strings.Join(parts[1:], "/"),
		}}, nil
	}
}

// Bucket opens the bucket, prefixed to the path.
//
// Local directories are created if missing. Cloud paths may need network
// access and credentials from the environment.
func (p *LocalOrCloudPath) Bucket(ctx context.Context) (*blob.Bucket, error) {
	switch {
	case p.CloudPath != nil:
		bucket, err := blob.OpenBucket(ctx,
			fmt.Sprintf("%s://%s", p.CloudPath.Scheme, p.CloudPath.BucketName))
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket: %v", err)
		}

		if p.CloudPath.Prefix == "" {
			return bucket, nil
		}
		return blob.PrefixedBucket(bucket, p.CloudPath.Prefix+"/"), nil

	case p.LocalPath != nil:
		bucket, err := fileblob.OpenBucket(
			string(*p.LocalPath),
			&fileblob.Options{CreateDir: true, NoTempDir: true},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket: %v", err)
		}
		return bucket, nil

	default:
		return nil, errors.New("invalid LocalOrCloudPath")
	}
}
