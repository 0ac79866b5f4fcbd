// Package reliability handles off-host backup of the stats document to
// an R2 (S3-compatible) bucket.
package reliability

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/config"
)

// ObjectPutter is the slice of the S3 client the backup needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Backup uploads the stats document on a schedule driven by the
// caller's cron.
type R2Backup struct {
	client    ObjectPutter
	bucket    string
	statsPath string
	log       zerolog.Logger
	now       func() time.Time
}

// NewR2Backup builds the backup service from config. The caller is
// expected to have checked cfg.Enabled() first.
func NewR2Backup(cfg *config.BackupConfig, statsPath string, log zerolog.Logger) (*R2Backup, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	})
	return newR2Backup(client, cfg.Bucket, statsPath, log), nil
}

func newR2Backup(client ObjectPutter, bucket, statsPath string, log zerolog.Logger) *R2Backup {
	return &R2Backup{
		client:    client,
		bucket:    bucket,
		statsPath: statsPath,
		log:       log.With().Str("service", "r2_backup").Logger(),
		now:       time.Now,
	}
}

// Upload pushes the current stats document to the bucket under a
// per-day key. A missing stats file is not an error; there is simply
// nothing to back up yet.
func (b *R2Backup) Upload(ctx context.Context) error {
	data, err := os.ReadFile(b.statsPath)
	if err != nil {
		if os.IsNotExist(err) {
			b.log.Debug().Str("path", b.statsPath).Msg("no stats document yet, skipping backup")
			return nil
		}
		return fmt.Errorf("failed to read stats document: %w", err)
	}

	sum := sha256.Sum256(data)
	key := fmt.Sprintf("stats/%s/stats.json", b.now().UTC().Format("2006-01-02"))

	start := time.Now()
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload stats backup: %w", err)
	}

	b.log.Info().
		Str("key", key).
		Int("bytes", len(data)).
		Str("checksum", hex.EncodeToString(sum[:8])).
		Dur("duration", time.Since(start)).
		Msg("stats backup uploaded")
	return nil
}
