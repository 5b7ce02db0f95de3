package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mmcdole/shuttle/internal/domain"
)

const (
	// DefaultLinkExpiry is the lifetime of presigned object links
	DefaultLinkExpiry = 7 * 24 * time.Hour

	folderContentType = "application/x-directory"
	delimiter         = "/"

	// probePages caps the one-key pages HasSubfolders reads before it
	// assumes the folder may have children
	probePages = 8
)

// Config holds the bucket location and optional static credentials.
// Empty credentials fall back to the default AWS credential chain.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	LinkExpiry      time.Duration
}

// objectAPI is the subset of the S3 client used here
type objectAPI interface {
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// handle is one authenticated client pair and the teardown of its transport
type handle struct {
	api     objectAPI
	presign presigner
	release func()
}

// Client implements domain.Backend for S3-compatible object stores.
// Folder ids are key prefixes ending in "/"; the empty id is the configured root prefix.
type Client struct {
	cfg     Config
	build   func(ctx context.Context) (*handle, error)
	current atomic.Pointer[handle]
	buildMu sync.Mutex
	logger  *slog.Logger
}

// NewClient creates an S3 backend. The AWS client is built on first use.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3.bucket is empty", domain.ErrNotConfigured)
	}
	c := newClient(cfg, logger)
	c.build = c.buildAWS
	return c, nil
}

func newClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = DefaultLinkExpiry
	}
	cfg.Prefix = normalizePrefix(cfg.Prefix)
	return &Client{cfg: cfg, logger: logger}
}

// buildAWS loads the AWS config and creates the S3 and presign clients
func (c *Client) buildAWS(ctx context.Context) (*handle, error) {
	opts := []func(*config.LoadOptions) error{}
	if c.cfg.Region != "" {
		opts = append(opts, config.WithRegion(c.cfg.Region))
	}
	if c.cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.cfg.AccessKeyID, c.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	httpClient := awshttp.NewBuildableClient()
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if c.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.cfg.Endpoint)
		}
		o.UsePathStyle = c.cfg.UsePathStyle
		o.HTTPClient = httpClient
	})
	return &handle{
		api:     client,
		presign: awss3.NewPresignClient(client),
		release: httpClient.CloseIdleConnections,
	}, nil
}

func (c *Client) conn(ctx context.Context) (*handle, error) {
	if h := c.current.Load(); h != nil {
		return h, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if h := c.current.Load(); h != nil {
		return h, nil
	}

	h, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	c.current.Store(h)
	return h, nil
}

// Describe returns the bucket URL
func (c *Client) Describe() string {
	return "s3://" + c.cfg.Bucket + "/" + c.cfg.Prefix
}

// Invalidate tears down the cached AWS client: idle connections are closed
// and the next call loads credentials again
func (c *Client) Invalidate() {
	h := c.current.Swap(nil)
	if h == nil {
		return
	}
	if h.release != nil {
		h.release()
	}
	c.logger.Debug("s3 client torn down")
}

// FindByName heads the key for name under folderID
func (c *Client) FindByName(ctx context.Context, name, folderID string) (*domain.ObjectRef, error) {
	h, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	key := c.objectKey(name, folderID)
	_, err = h.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	ref := c.ref(ctx, h, key)
	return &ref, nil
}

// CreateObject puts content under its folder prefix
func (c *Client) CreateObject(ctx context.Context, content domain.ObjectContent) (domain.ObjectRef, error) {
	return c.put(ctx, c.objectKey(content.Name, content.FolderID), content)
}

// UpdateObject overwrites the object at key objectID
func (c *Client) UpdateObject(ctx context.Context, objectID string, content domain.ObjectContent) (domain.ObjectRef, error) {
	return c.put(ctx, objectID, content)
}

func (c *Client) put(ctx context.Context, key string, content domain.ObjectContent) (domain.ObjectRef, error) {
	h, err := c.conn(ctx)
	if err != nil {
		return domain.ObjectRef{}, err
	}

	c.logger.Debug("s3 put", "bucket", c.cfg.Bucket, "key", key, "size", content.Size)

	// The body is a counting stream and cannot be rewound for payload hashing.
	_, err = h.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		Body:          content.Body,
		ContentLength: aws.Int64(content.Size),
		ContentType:   aws.String(content.MimeType),
	}, awss3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		return domain.ObjectRef{}, mapError(err)
	}
	return c.ref(ctx, h, key), nil
}

// ListFolders returns the common prefixes directly under parentID
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]domain.RemoteFolder, error) {
	h, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	prefix := c.folderPrefix(parentID)
	p := awss3.NewListObjectsV2Paginator(h.api, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(c.cfg.Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var folders []domain.RemoteFolder
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, cp := range page.CommonPrefixes {
			id := aws.ToString(cp.Prefix)
			folders = append(folders, domain.RemoteFolder{
				ID:       id,
				Name:     folderName(id),
				ParentID: parentID,
			})
		}
	}
	return folders, nil
}

// HasSubfolders reports whether folderID has at least one child prefix.
// Each request asks for a single key. Files and the folder's own marker sort
// alongside child prefixes, so a few pages are read before giving up; a
// folder still truncated after probePages is reported as expandable.
func (c *Client) HasSubfolders(ctx context.Context, folderID string) (bool, error) {
	h, err := c.conn(ctx)
	if err != nil {
		return false, err
	}

	in := &awss3.ListObjectsV2Input{
		Bucket:    aws.String(c.cfg.Bucket),
		Prefix:    aws.String(c.folderPrefix(folderID)),
		Delimiter: aws.String(delimiter),
		MaxKeys:   aws.Int32(1),
	}
	for range probePages {
		out, err := h.api.ListObjectsV2(ctx, in)
		if err != nil {
			return false, mapError(err)
		}
		if len(out.CommonPrefixes) > 0 {
			return true, nil
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return false, nil
		}
		in.ContinuationToken = out.NextContinuationToken
	}
	return true, nil
}

// CreateFolder writes a zero-byte marker object for the new prefix
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (domain.RemoteFolder, error) {
	h, err := c.conn(ctx)
	if err != nil {
		return domain.RemoteFolder{}, err
	}

	name = strings.Trim(name, delimiter)
	if name == "" {
		return domain.RemoteFolder{}, fmt.Errorf("folder name is empty")
	}
	id := c.folderPrefix(parentID) + name + delimiter

	_, err = h.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(id),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
		ContentType:   aws.String(folderContentType),
	})
	if err != nil {
		return domain.RemoteFolder{}, mapError(err)
	}
	return domain.RemoteFolder{ID: id, Name: name, ParentID: parentID}, nil
}

// ref builds the object reference with a presigned link; a failed
// presign leaves the link empty
func (c *Client) ref(ctx context.Context, h *handle, key string) domain.ObjectRef {
	ref := domain.ObjectRef{ID: key, Name: path.Base(key)}

	req, err := h.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(c.cfg.LinkExpiry))
	if err != nil {
		c.logger.Warn("failed to presign object link", "key", key, "error", err)
		return ref
	}
	ref.WebLink = req.URL
	return ref
}

// folderPrefix maps a folder id to its key prefix
func (c *Client) folderPrefix(folderID string) string {
	if folderID == "" {
		return c.cfg.Prefix
	}
	return normalizePrefix(folderID)
}

func (c *Client) objectKey(name, folderID string) string {
	return c.folderPrefix(folderID) + name
}

// normalizePrefix strips a leading slash and ensures a trailing one
func normalizePrefix(p string) string {
	p = strings.TrimPrefix(p, delimiter)
	if p == "" || strings.HasSuffix(p, delimiter) {
		return p
	}
	return p + delimiter
}

// folderName is the last segment of a prefix
func folderName(prefix string) string {
	return path.Base(strings.TrimSuffix(prefix, delimiter))
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}

// mapError turns credential rejections into domain.ErrAuthExpired
func mapError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return fmt.Errorf("%w: %v", domain.ErrAuthExpired, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", domain.ErrNotConfigured, err)
		}
	}
	return err
}
