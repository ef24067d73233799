package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"meetme/internal/models"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	meetingsBucket = []byte("proposal")
	busyBucket     = []byte("busy")
)

// Bolt is a Store backed by a local bolt database file.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (and creates, if necessary) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{meetingsBucket, busyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "creating %q bucket", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// busyKey groups busy times under their meeting so they can be scanned by prefix.
func busyKey(meetingID, id string) []byte {
	return []byte(meetingID + "/" + id)
}

func (s *Bolt) CreateMeeting(_ context.Context, m models.Meeting) (string, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "marshalling meeting")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(meetingsBucket).Put([]byte(m.ID), data)
	})
	if err != nil {
		return "", errors.Wrap(err, "storing meeting")
	}
	return m.ID, nil
}

func (s *Bolt) Meeting(_ context.Context, id string) (models.Meeting, error) {
	var m models.Meeting

	err := s.db.View(func(tx *bolt.Tx) error {
		d := tx.Bucket(meetingsBucket).Get([]byte(id))
		if d == nil {
			return fmt.Errorf("meeting %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(d, &m)
	})
	return m, err
}

func (s *Bolt) Meetings(_ context.Context) ([]models.Meeting, error) {
	var meetings []models.Meeting

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(meetingsBucket).ForEach(func(k, v []byte) error {
			var m models.Meeting
			if err := json.Unmarshal(v, &m); err != nil {
				return errors.Wrapf(err, "decoding meeting %s", k)
			}
			meetings = append(meetings, m)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing meetings")
	}

	slices.SortFunc(meetings, func(a, b models.Meeting) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return meetings, nil
}

func (s *Bolt) DeleteMeetings(_ context.Context, ids ...string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		meetings := tx.Bucket(meetingsBucket)
		busy := tx.Bucket(busyBucket)

		for _, id := range ids {
			if id == "" {
				continue
			}
			if err := meetings.Delete([]byte(id)); err != nil {
				return errors.Wrapf(err, "deleting meeting %s", id)
			}

			var keys [][]byte
			prefix := busyKey(id, "")
			c := busy.Cursor()
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				keys = append(keys, slices.Clone(k))
			}
			for _, k := range keys {
				if err := busy.Delete(k); err != nil {
					return errors.Wrapf(err, "deleting busy time %s", k)
				}
			}
		}
		return nil
	})
	return errors.Wrap(err, "deleting meetings")
}

func (s *Bolt) AddBusyTimes(_ context.Context, busy []models.BusyTime) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(busyBucket)
		for _, bt := range busy {
			if bt.ID == "" {
				bt.ID = NewID()
			}
			data, err := json.Marshal(bt)
			if err != nil {
				return errors.Wrap(err, "marshalling busy time")
			}
			if err := b.Put(busyKey(bt.MeetingID, bt.ID), data); err != nil {
				return errors.Wrap(err, "storing busy time")
			}
		}
		return nil
	})
	return errors.Wrap(err, "adding busy times")
}

func (s *Bolt) BusyTimes(_ context.Context, meetingID string) ([]models.BusyTime, error) {
	var busy []models.BusyTime

	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := busyKey(meetingID, "")
		c := tx.Bucket(busyBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var bt models.BusyTime
			if err := json.Unmarshal(v, &bt); err != nil {
				return errors.Wrapf(err, "decoding busy time %s", k)
			}
			busy = append(busy, bt)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing busy times")
	}

	slices.SortStableFunc(busy, func(a, b models.BusyTime) int {
		return a.Start.Compare(b.Start)
	})
	return busy, nil
}

// Close closes the database.
func (s *Bolt) Close() error {
	return s.db.Close()
}
