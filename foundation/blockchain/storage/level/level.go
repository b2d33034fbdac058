// Package level implements the ability to read and write the blockchain to
// a LevelDB database with one record per block.
package level

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockPrefix is prepended to the big endian block index so keys sort in
// chain order.
var blockPrefix = []byte("blk:")

// Level represents the storage implementation for reading and storing
// blocks in LevelDB. This implements the database.Storage interface.
type Level struct {
	db *leveldb.DB
}

// New opens or creates the LevelDB database at the specified path.
func New(dbPath string) (*Level, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &Level{db: db}, nil
}

// Close releases the database.
func (l *Level) Close() error {
	return l.db.Close()
}

// Load reads every block in index order.
func (l *Level) Load() ([]database.Block, error) {
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	var blocks []database.Block
	for iter.Next() {
		var block database.Block
		if err := json.Unmarshal(iter.Value(), &block); err != nil {
			return nil, fmt.Errorf("parsing block key %x: %w", iter.Key(), err)
		}

		if block.Index != uint64(len(blocks)) {
			return nil, fmt.Errorf("block is out of order, got %d, exp %d", block.Index, len(blocks))
		}

		blocks = append(blocks, block)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, database.ErrNoStore
	}

	return blocks, nil
}

// Save writes the chain in a single synced batch. Blocks stored beyond the
// end of the specified chain are removed in the same batch.
func (l *Level) Save(blocks []database.Block) error {
	batch := new(leveldb.Batch)

	for _, block := range blocks {
		data, err := json.Marshal(block)
		if err != nil {
			return err
		}
		batch.Put(key(block.Index), data)
	}

	iter := l.db.NewIterator(&util.Range{Start: key(uint64(len(blocks))), Limit: util.BytesPrefix(blockPrefix).Limit}, nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// Reset removes every block from the database.
func (l *Level) Reset() error {
	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// key forms the database key for the specified block index.
func key(index uint64) []byte {
	k := make([]byte, len(blockPrefix)+8)
	copy(k, blockPrefix)
	binary.BigEndian.PutUint64(k[len(blockPrefix):], index)
	return k
}
