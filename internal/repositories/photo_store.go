package repositories

import (
	"bytes"
	"context"
	"errors"

	"feedbackportal/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StoredPhoto struct {
	Data        []byte
	ContentType string
	Filename    string
}

// PhotoStore keeps attendee photos outside the relational store.
type PhotoStore interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Open(ctx context.Context, id string) (*StoredPhoto, error)
	Delete(ctx context.Context, id string) error
}

type gridFSPhotoStore struct {
	bucket *gridfs.Bucket
}

type gridFSFile struct {
	Name     string `bson:"filename"`
	Metadata struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

func NewGridFSPhotoStore(db *mongo.Database, bucketName string) (PhotoStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, err
	}
	return &gridFSPhotoStore{bucket: bucket}, nil
}

func (s *gridFSPhotoStore) Save(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	id, err := s.bucket.UploadFromStream(filename, bytes.NewReader(data), opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *gridFSPhotoStore) Open(ctx context.Context, id string) (*StoredPhoto, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrPhotoNotFound
	}

	cursor, err := s.bucket.FindContext(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, utils.ErrPhotoNotFound
	}
	var file gridFSFile
	if err := cursor.Decode(&file); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStream(oid, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, utils.ErrPhotoNotFound
		}
		return nil, err
	}

	contentType := file.Metadata.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &StoredPhoto{Data: buf.Bytes(), ContentType: contentType, Filename: file.Name}, nil
}

func (s *gridFSPhotoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrPhotoNotFound
	}
	err = s.bucket.DeleteContext(ctx, oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return utils.ErrPhotoNotFound
	}
	return err
}

type disabledPhotoStore struct{}

// NewDisabledPhotoStore is used when no MongoDB URI is configured; every call
// reports ErrStorageUnavailable.
func NewDisabledPhotoStore() PhotoStore {
	return disabledPhotoStore{}
}

func (disabledPhotoStore) Save(context.Context, string, string, []byte) (string, error) {
	return "", utils.ErrStorageUnavailable
}

func (disabledPhotoStore) Open(context.Context, string) (*StoredPhoto, error) {
	return nil, utils.ErrStorageUnavailable
}

func (disabledPhotoStore) Delete(context.Context, string) error {
	return utils.ErrStorageUnavailable
}
