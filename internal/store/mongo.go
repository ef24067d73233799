package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetme/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// Mongo is a Store backed by MongoDB, with meetings in the "proposal"
// collection and busy times in "busy".
type Mongo struct {
	client   *mongo.Client
	meetings *mongo.Collection
	busy     *mongo.Collection
}

// OpenMongo connects to the server at uri and uses database dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &Mongo{
		client:   client,
		meetings: db.Collection("proposal"),
		busy:     db.Collection("busy"),
	}, nil
}

func (s *Mongo) CreateMeeting(ctx context.Context, m models.Meeting) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if _, err := s.meetings.InsertOne(ctx, m); err != nil {
		return "", fmt.Errorf("failed to insert meeting: %w", err)
	}
	return m.ID, nil
}

func (s *Mongo) Meeting(ctx context.Context, id string) (models.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m models.Meeting
	err := s.meetings.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return m, fmt.Errorf("failed to find meeting %s: %w", id, err)
	}
	return m, nil
}

func (s *Mongo) Meetings(ctx context.Context) ([]models.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := s.meetings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer cursor.Close(ctx)

	var meetings []models.Meeting
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode meetings: %w", err)
	}
	return meetings, nil
}

func (s *Mongo) DeleteMeetings(ctx context.Context, ids ...string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"$in": ids}
	if _, err := s.meetings.DeleteMany(ctx, bson.M{"_id": filter}); err != nil {
		return fmt.Errorf("failed to delete meetings: %w", err)
	}
	if _, err := s.busy.DeleteMany(ctx, bson.M{"proposal_ID": filter}); err != nil {
		return fmt.Errorf("failed to delete busy times: %w", err)
	}
	return nil
}

func (s *Mongo) AddBusyTimes(ctx context.Context, busy []models.BusyTime) error {
	if len(busy) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	docs := make([]interface{}, len(busy))
	for i, bt := range busy {
		if bt.ID == "" {
			bt.ID = NewID()
		}
		docs[i] = bt
	}
	if _, err := s.busy.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert busy times: %w", err)
	}
	return nil
}

func (s *Mongo) BusyTimes(ctx context.Context, meetingID string) ([]models.BusyTime, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := s.busy.Find(ctx, bson.M{"proposal_ID": meetingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find busy times: %w", err)
	}
	defer cursor.Close(ctx)

	var busy []models.BusyTime
	if err := cursor.All(ctx, &busy); err != nil {
		return nil, fmt.Errorf("failed to decode busy times: %w", err)
	}
	return busy, nil
}

// Close disconnects from the server.
func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
