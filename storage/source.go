package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RecipeSource yields the raw bytes of the recipe CSV dataset.
type RecipeSource interface {
	Load(ctx context.Context) ([]byte, error)
}

type FileRecipeSource struct {
	FilePath string
}

func NewFileRecipeSource(filePath string) *FileRecipeSource {
	return &FileRecipeSource{FilePath: filePath}
}

func (f *FileRecipeSource) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3RecipeSource reads the dataset from an S3 object.
type S3RecipeSource struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3RecipeSource(client s3GetObjectAPI, bucket, key string) *S3RecipeSource {
	return &S3RecipeSource{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

func (s *S3RecipeSource) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// TestRecipeSource is an in-memory RecipeSource for tests.
type TestRecipeSource struct {
	data  []byte
	err   error
	loads int
}

func NewTestRecipeSource(data []byte) *TestRecipeSource {
	return &TestRecipeSource{data: data}
}

func NewTestRecipeSourceWithError() *TestRecipeSource {
	return &TestRecipeSource{err: errors.New("not found")}
}

func (t *TestRecipeSource) Load(ctx context.Context) ([]byte, error) {
	t.loads++
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// Loads reports how many times Load was called.
func (t *TestRecipeSource) Loads() int {
	return t.loads
}
