package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore builds a Store with static credentials and no bucket check.
// Presigning is local signing only, so these tests never touch the network.
func testStore(t *testing.T) *Store {
	t.Helper()
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	})
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg: Config{
			Bucket:         "test-bucket",
			UploadURLTTL:   15 * time.Minute,
			DownloadURLTTL: 15 * time.Minute,
		},
		logger: zerolog.Nop(),
	}
}

func TestPresignUpload(t *testing.T) {
	s := testStore(t)

	rawURL, err := s.PresignUpload(context.Background(), "exports/u/b.zip")
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/exports/u/b.zip"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	// Content-Length must stay out of the signed headers. Signing it pins
	// the upload to one exact byte count and S3 rejects everything else;
	// size enforcement happens after upload against the stored object.
	signed := u.Query().Get("X-Amz-SignedHeaders")
	assert.NotContains(t, signed, "content-length")
}

func TestPresignDownload(t *testing.T) {
	s := testStore(t)

	rawURL, err := s.PresignDownload(context.Background(), "processed/u/b.txt")
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/processed/u/b.txt"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestObjectKeys(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	backupID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t,
		"exports/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.zip",
		RawKey(userID, backupID))
	assert.Equal(t,
		"processed/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.txt",
		ProcessedKey(userID, backupID))
}
