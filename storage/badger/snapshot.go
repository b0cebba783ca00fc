package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// SnapshotRepository implements storage.SnapshotRepository using BadgerDB.
//
// Each save writes its entries under a fresh generation prefix, then flips
// the manifest key in a single transaction. Readers follow the manifest, so
// they see either the old generation or the new one. The superseded
// generation is dropped after the flip.
type SnapshotRepository struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger

	// mu keeps loads from reading a generation while it is being dropped.
	mu sync.RWMutex
	// saveMu serializes saves.
	saveMu sync.Mutex
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewRepository opens a BadgerDB database at path and returns a snapshot
// repository that owns it.
//
// Returns storage.SnapshotRepository interface to enforce abstraction.
func NewRepository(path string) (storage.SnapshotRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newSnapshotRepository(backend, true), nil
}

// NewSnapshotRepository creates a snapshot repository on a shared backend.
// The caller keeps ownership of backend.
func NewSnapshotRepository(backend *Backend) (storage.SnapshotRepository, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	return newSnapshotRepository(backend, false), nil
}

func newSnapshotRepository(backend *Backend, owns bool) *SnapshotRepository {
	return &SnapshotRepository{
		backend:     backend,
		ownsBackend: owns,
		logger:      backend.logger.With("component", "snapshot-repository"),
	}
}

// Close releases the backend if this repository owns it.
func (r *SnapshotRepository) Close() error {
	if r.ownsBackend && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snap *core.Snapshot) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := core.ValidateSnapshot(snap); err != nil {
		return err
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	current, err := r.readManifest()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	var generation uint64 = 1
	if current != nil {
		generation = current.Generation + 1
	}

	// Clear leftovers from an interrupted save of the same generation.
	if err := r.backend.DropPrefix(makeGenerationPrefix(generation)); err != nil {
		return fmt.Errorf("failed to clear generation %d: %w", generation, err)
	}

	checksum, err := r.writeEntries(ctx, generation, snap)
	if err != nil {
		if dropErr := r.backend.DropPrefix(makeGenerationPrefix(generation)); dropErr != nil {
			r.logger.Warn("failed to clean up partial snapshot", "generation", generation, "err", dropErr)
		}
		return err
	}

	manifest := &storage.Manifest{
		Generation: generation,
		Count:      snap.Len(),
		Dimension:  snap.Dimension,
		Model:      snap.Model,
		BuiltAt:    snap.BuiltAt,
		Checksum:   checksum,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set([]byte(manifestKey), storage.MarshalManifest(manifest))
	}, true)
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if current != nil {
		if err := r.backend.DropPrefix(makeGenerationPrefix(current.Generation)); err != nil {
			r.logger.Warn("failed to drop superseded snapshot", "generation", current.Generation, "err", err)
		}
	}

	r.logger.Debug("saved snapshot", "generation", generation, "entries", manifest.Count, "dimension", manifest.Dimension)
	return nil
}

func (r *SnapshotRepository) writeEntries(ctx context.Context, generation uint64, snap *core.Snapshot) (uint64, error) {
	wb := r.backend.NewWriteBatch()
	defer wb.Cancel()

	h := newChecksum()
	for i := range snap.Vectors {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		entry := storage.MarshalEntry(&storage.Entry{
			SourceLabel: snap.SourceLabels[i],
			FileID:      snap.FileIDs[i],
			Text:        snap.Texts[i],
			Vector:      snap.Vectors[i],
		})
		writeChecksum(h, entry)
		if err := wb.Set(makeEntryKey(generation, i), entry); err != nil {
			return 0, fmt.Errorf("failed to write entry %d: %w", i, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush snapshot entries: %w", err)
	}
	return binary.BigEndian.Uint64(h.Sum(nil)), nil
}

// LoadSnapshot reads the current snapshot generation.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var snap *core.Snapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		manifest, err := getManifest(tx)
		if err != nil {
			return err
		}

		snap = &core.Snapshot{
			Vectors:      make([][]float32, 0, manifest.Count),
			SourceLabels: make([]string, 0, manifest.Count),
			FileIDs:      make([]string, 0, manifest.Count),
			Texts:        make([]string, 0, manifest.Count),
			Model:        manifest.Model,
			Dimension:    manifest.Dimension,
			BuiltAt:      manifest.BuiltAt,
		}

		prefix := makeGenerationPrefix(manifest.Generation)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		h := newChecksum()
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			pos, ok := entryPosition(item.Key())
			if !ok || pos != snap.Len() {
				return fmt.Errorf("%w: entry out of sequence at %d", storage.ErrCorruptSnapshot, snap.Len())
			}

			err := item.Value(func(val []byte) error {
				writeChecksum(h, val)
				entry, err := storage.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				snap.Vectors = append(snap.Vectors, entry.Vector)
				snap.SourceLabels = append(snap.SourceLabels, entry.SourceLabel)
				snap.FileIDs = append(snap.FileIDs, entry.FileID)
				snap.Texts = append(snap.Texts, entry.Text)
				return nil
			})
			if err != nil {
				return fmt.Errorf("%w: entry %d: %w", storage.ErrCorruptSnapshot, pos, err)
			}
		}

		if snap.Len() != manifest.Count {
			return fmt.Errorf("%w: expected %d entries, found %d", storage.ErrCorruptSnapshot, manifest.Count, snap.Len())
		}
		if sum := binary.BigEndian.Uint64(h.Sum(nil)); sum != manifest.Checksum {
			return fmt.Errorf("%w: checksum mismatch", storage.ErrCorruptSnapshot)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if err := core.ValidateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrCorruptSnapshot, err)
	}
	return snap, nil
}

func (r *SnapshotRepository) readManifest() (*storage.Manifest, error) {
	var manifest *storage.Manifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		manifest, err = getManifest(tx)
		return err
	}, false)
	return manifest, err
}

func getManifest(tx *badger.Txn) (*storage.Manifest, error) {
	item, err := tx.Get([]byte(manifestKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var manifest *storage.Manifest
	err = item.Value(func(val []byte) error {
		var err error
		manifest, err = storage.UnmarshalManifest(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", storage.ErrCorruptSnapshot, err)
	}
	return manifest, nil
}

func newChecksum() hash.Hash {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	return h
}

// writeChecksum hashes a length-prefixed entry so entry boundaries count.
func writeChecksum(h hash.Hash, entry []byte) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(entry)))
	h.Write(size[:])
	h.Write(entry)
}
