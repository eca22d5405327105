package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"invoicelink/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// InvoiceArchive keeps an immutable JSON copy of every submitted invoice.
type InvoiceArchive interface {
	Store(ctx context.Context, inv *models.Invoice) (string, error)
	GetPresignedURL(ctx context.Context, inv *models.Invoice, expiry time.Duration) (string, error)
	EnsureBucketExists(ctx context.Context) error
	Ping(ctx context.Context) error
}

// ArchiveObjectName is the object key of an invoice in the archive bucket.
func ArchiveObjectName(inv *models.Invoice) string {
	return fmt.Sprintf("invoices/%s/%s.json", inv.AccountID, inv.InvoiceNumber)
}

type minioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioArchive(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (InvoiceArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioArchive{client: client, bucket: bucket}, nil
}

func (m *minioArchive) Store(ctx context.Context, inv *models.Invoice) (string, error) {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode invoice: %w", err)
	}
	name := ArchiveObjectName(inv)
	_, err = m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"invoice-number": inv.InvoiceNumber,
			"total":          inv.Total.StringFixed(2),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive invoice %s: %w", inv.InvoiceNumber, err)
	}
	return name, nil
}

func (m *minioArchive) GetPresignedURL(ctx context.Context, inv *models.Invoice, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, ArchiveObjectName(inv), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioArchive) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioArchive) Ping(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

type noopArchive struct{}

// NewNoopArchive is used when no object store is configured.
func NewNoopArchive() InvoiceArchive { return noopArchive{} }

func (noopArchive) Store(context.Context, *models.Invoice) (string, error) { return "", nil }

func (noopArchive) GetPresignedURL(context.Context, *models.Invoice, time.Duration) (string, error) {
	return "", models.ErrNotFound
}

func (noopArchive) EnsureBucketExists(context.Context) error { return nil }

func (noopArchive) Ping(context.Context) error { return nil }
