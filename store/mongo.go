package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nivaran-be/models"
)

const (
	issuesCollection     = "issues"
	votesCollection      = "votes"
	supervisorCollection = "supervisor"
	locationsCollection  = "locations"
	imageBucket          = "images"

	// ImageURLPrefix is where the HTTP layer serves GridFS files from.
	ImageURLPrefix = "/api/images/"
)

// Mongo stores the snapshot and side state in MongoDB and evidence photos in
// a GridFS bucket.
type Mongo struct {
	db         *mongo.Database
	issues     *mongo.Collection
	votes      *mongo.Collection
	supervisor *mongo.Collection
	locations  *mongo.Collection
	bucket     *gridfs.Bucket
}

type locationDoc struct {
	IssueID         string `bson:"_id"`
	models.Location `bson:",inline"`
}

func NewMongo(ctx context.Context, db *mongo.Database) (*Mongo, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(imageBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	m := &Mongo{
		db:         db,
		issues:     db.Collection(issuesCollection),
		votes:      db.Collection(votesCollection),
		supervisor: db.Collection(supervisorCollection),
		locations:  db.Collection(locationsCollection),
		bucket:     bucket,
	}
	if err := models.EnsureVoteIndex(ctx, m.votes); err != nil {
		return nil, fmt.Errorf("ensure vote index: %w", err)
	}
	return m, nil
}

func (m *Mongo) LoadIssues(ctx context.Context) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.issues.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

func (m *Mongo) SaveIssues(ctx context.Context, issues []models.Issue) error {
	ids := make([]string, 0, len(issues))
	writes := make([]mongo.WriteModel, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": issue.ID}).
			SetReplacement(issue).
			SetUpsert(true))
	}

	if _, err := m.issues.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}}); err != nil {
		return fmt.Errorf("prune issues: %w", err)
	}
	if len(writes) == 0 {
		return nil
	}
	if _, err := m.issues.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write issues: %w", err)
	}
	return nil
}

func (m *Mongo) SaveIssue(ctx context.Context, issue models.Issue) error {
	_, err := m.issues.ReplaceOne(ctx, bson.M{"_id": issue.ID}, issue, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save issue %s: %w", issue.ID, err)
	}
	return nil
}

func (m *Mongo) ToggleVote(ctx context.Context, issueID, userID string, at time.Time) (bool, error) {
	res, err := m.votes.DeleteOne(ctx, bson.M{"issue": issueID, "user": userID})
	if err != nil {
		return false, fmt.Errorf("remove vote: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = m.votes.InsertOne(ctx, models.Vote{Issue: issueID, User: userID, CreatedAt: at})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert vote: %w", err)
	}
	return true, nil
}

func (m *Mongo) SupervisorState(ctx context.Context, issueID string) (models.SupervisorState, error) {
	var s models.SupervisorState
	err := m.supervisor.FindOne(ctx, bson.M{"_id": issueID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SupervisorState{IssueID: issueID}, nil
	}
	if err != nil {
		return s, fmt.Errorf("find supervisor state: %w", err)
	}
	return s, nil
}

func (m *Mongo) Acknowledge(ctx context.Context, issueID string, at time.Time) (models.SupervisorState, error) {
	return m.updateState(ctx, issueID, bson.M{"$set": bson.M{"acknowledgedAt": at}})
}

func (m *Mongo) AddImage(ctx context.Context, issueID, url string) (models.SupervisorState, error) {
	return m.updateState(ctx, issueID, bson.M{"$push": bson.M{"images": url}})
}

func (m *Mongo) updateState(ctx context.Context, issueID string, update bson.M) (models.SupervisorState, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var s models.SupervisorState
	if err := m.supervisor.FindOneAndUpdate(ctx, bson.M{"_id": issueID}, update, opts).Decode(&s); err != nil {
		return s, fmt.Errorf("update supervisor state: %w", err)
	}
	return s, nil
}

func (m *Mongo) Location(ctx context.Context, issueID string) (models.Location, error) {
	var doc locationDoc
	err := m.locations.FindOne(ctx, bson.M{"_id": issueID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Location{}, ErrNotFound
	}
	if err != nil {
		return models.Location{}, fmt.Errorf("find location: %w", err)
	}
	return doc.Location, nil
}

func (m *Mongo) UpsertLocation(ctx context.Context, issueID string, loc models.Location) error {
	doc := locationDoc{IssueID: issueID, Location: loc}
	if _, err := m.locations.ReplaceOne(ctx, bson.M{"_id": issueID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}

// UploadImage streams r into GridFS with the attachment as metadata and
// returns the download URL.
func (m *Mongo) UploadImage(ctx context.Context, a models.Attachment, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(a)
	stream, err := m.bucket.OpenUploadStream(a.Name, opts)
	if err != nil {
		return "", fmt.Errorf("open upload stream: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(dl)
	}
	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("upload image: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("finish upload: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected gridfs file id %T", stream.FileID)
	}
	return ImageURLPrefix + id.Hex(), nil
}

func (m *Mongo) OpenImage(ctx context.Context, id string) (io.ReadCloser, models.Attachment, error) {
	var a models.Attachment
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, a, ErrNotFound
	}

	stream, err := m.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, a, ErrNotFound
	}
	if err != nil {
		return nil, a, fmt.Errorf("open image: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(dl)
	}
	if meta := stream.GetFile().Metadata; meta != nil {
		_ = bson.Unmarshal(meta, &a)
	}
	return stream, a, nil
}

func (m *Mongo) ResetState(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{m.votes, m.supervisor, m.locations} {
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}
