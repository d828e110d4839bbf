// Copyright 2025 StreamForge, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ledger records completed uploads in a local bbolt file so a later
// invocation (a separate process) can find what to roll back. One record is
// kept per topology/role pair; a re-upload overwrites the previous record.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

var NotFound = errors.New("no upload recorded")

var bucketName = []byte("uploads")

// Record is what the ledger remembers about one completed upload.
type Record struct {
	Provider   string `json:"provider"`
	Topology   string `json:"topology"`
	Role       string `json:"role"`
	URI        string `json:"uri"`
	UploadedAt int64  `json:"uploaded_at"`
}

func (r Record) Key() []byte {
	return []byte(fmt.Sprintf("%s/%s", r.Topology, r.Role))
}

type Ledger struct {
	db *bbolt.DB
}

func Open(path string, mode os.FileMode) (*Ledger, error) {
	db, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Put records an upload, stamping it with the current time if unset.
func (l *Ledger) Put(r Record) error {
	if r.UploadedAt == 0 {
		r.UploadedAt = time.Now().Unix()
	}
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return bucket.Put(r.Key(), value)
	})
}

// Get returns the record for a topology/role pair, or NotFound.
func (l *Ledger) Get(topology, role string) (Record, error) {
	key := Record{Topology: topology, Role: role}.Key()
	var result Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return NotFound
		}
		value := bucket.Get(key)
		if value == nil {
			return NotFound
		}
		return json.Unmarshal(value, &result)
	})
	return result, err
}

// Forget removes the record for a topology/role pair. Forgetting a pair
// that was never recorded is not an error.
func (l *Ledger) Forget(topology, role string) error {
	key := Record{Topology: topology, Role: role}.Key()
	return l.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(key)
	})
}

// List returns all records in key order.
func (l *Ledger) List() ([]Record, error) {
	var records []Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, value []byte) error {
			var r Record
			if err := json.Unmarshal(value, &r); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}
