package backup

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/uptrace/bun"
)

const keyPrefix = "backups/"

// ObjectStore is the subset of the S3 API used for backups.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds backup configuration
type Config struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	LocalBackupDir     string
	RetentionDays      int // Number of days to keep uploaded backups
}

// Service snapshots the SQLite database and ships it to S3.
type Service struct {
	db       bun.IDB
	store    ObjectStore
	bucket   string
	localDir string
	retain   int
	logger   logger.Logger
	now      func() time.Time
}

// NewS3Client builds an S3 client. Empty static keys fall back to the
// default AWS credential chain.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewService creates a backup service. A nil store keeps backups local.
func NewService(db bun.IDB, store ObjectStore, cfg Config, log logger.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.LocalBackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if cfg.S3Bucket == "" {
		store = nil
	}

	return &Service{
		db:       db,
		store:    store,
		bucket:   cfg.S3Bucket,
		localDir: cfg.LocalBackupDir,
		retain:   cfg.RetentionDays,
		logger:   log.With("component", "backup"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Result describes one backup run
type Result struct {
	Filename     string        `json:"filename"`
	LocalPath    string        `json:"local_path"`
	FileSize     int64         `json:"file_size"`
	S3Key        string        `json:"s3_key,omitempty"`
	Duration     time.Duration `json:"duration"`
	UploadedToS3 bool          `json:"uploaded_to_s3"`
	Pruned       int           `json:"pruned"`
}

// Info describes a stored backup
type Info struct {
	Key          string        `json:"key"`
	Size         int64         `json:"size"`
	LastModified time.Time     `json:"last_modified"`
	Age          time.Duration `json:"age"`
}

// CreateBackup writes a consistent gzip'd snapshot of the database and
// uploads it when a bucket is configured.
func (s *Service) CreateBackup(ctx context.Context) (*Result, error) {
	start := s.now()
	filename := fmt.Sprintf("beauty-os-backup-%s.db.gz", start.Format("20060102-150405"))
	localPath := filepath.Join(s.localDir, filename)
	snapshot := strings.TrimSuffix(localPath, ".gz")

	// VACUUM INTO refuses to overwrite
	_ = os.Remove(snapshot)
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	defer os.Remove(snapshot)

	size, err := compress(snapshot, localPath)
	if err != nil {
		os.Remove(localPath)
		return nil, err
	}

	result := &Result{
		Filename:  filename,
		LocalPath: localPath,
		FileSize:  size,
	}

	if s.store != nil {
		result.S3Key = keyPrefix + filename
		if err := s.upload(ctx, localPath, result.S3Key); err != nil {
			return result, fmt.Errorf("backup created locally but S3 upload failed: %w", err)
		}
		result.UploadedToS3 = true
		s.logger.Info("backup uploaded", "bucket", s.bucket, "key", result.S3Key)

		pruned, err := s.cleanupOldBackups(ctx)
		if err != nil {
			s.logger.Warn("failed to prune old backups", "error", err)
		}
		result.Pruned = pruned
	}

	result.Duration = s.now().Sub(start)
	s.logger.Info("backup completed", "file", filename, "size", result.FileSize, "duration", result.Duration)
	return result, nil
}

func compress(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return 0, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat backup file: %w", err)
	}
	return info.Size(), nil
}

func (s *Service) upload(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String("application/gzip"),
		StorageClass: types.StorageClassStandardIa,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// cleanupOldBackups deletes uploaded backups older than the retention period.
func (s *Service) cleanupOldBackups(ctx context.Context) (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -s.retain)

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, b := range backups {
		if !b.LastModified.Before(cutoff) {
			continue
		}
		_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(b.Key),
		})
		if err != nil {
			s.logger.Warn("failed to delete old backup", "key", b.Key, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("pruned old backups", "deleted", deleted, "retention_days", s.retain)
	}
	return deleted, nil
}

// ListBackups lists the backups stored in S3.
func (s *Service) ListBackups(ctx context.Context) ([]Info, error) {
	if s.store == nil {
		return nil, fmt.Errorf("S3 bucket not configured")
	}

	out, err := s.store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	now := s.now()
	backups := make([]Info, 0, len(out.Contents))
	for _, obj := range out.Contents {
		info := Info{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
			info.Age = now.Sub(info.LastModified)
		}
		backups = append(backups, info)
	}
	return backups, nil
}
