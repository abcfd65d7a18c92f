package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/snapshot"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

// ErrNotFound возвращается, если сетка с ключом отсутствует
var ErrNotFound = errors.New("сетка не найдена")

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("хранилище не готово")

const (
	gridPrefix = "grid:"
	metaPrefix = "meta:"
)

// GridStore - кеш сгенерированных сеток в BadgerDB.
// Сетки хранятся снимками snapshot, рядом лежат метаданные в JSON.
type GridStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

// GridMeta содержит сведения о сохранённой сетке
type GridMeta struct {
	Key        string    `json:"key"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Depth      int       `json:"depth"`
	SolidCount int       `json:"solid_count"`
	Size       int       `json:"size_bytes"` // Размер снимка
	SavedAt    time.Time `json:"saved_at"`
}

// Open открывает хранилище в каталоге dataPath/grids
func Open(dataPath string) (*GridStore, error) {
	dbPath := filepath.Join(dataPath, "grids")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	return open(opts, dbPath)
}

// OpenInMemory открывает хранилище без записи на диск
func OpenInMemory() (*GridStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, "")
}

func open(opts badger.Options, dbPath string) (*GridStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &GridStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		logger:  logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище
func (gs *GridStore) Close() error {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	if !gs.isReady {
		return nil
	}

	gs.isReady = false
	return gs.db.Close()
}

// Save сохраняет сетку под ключом key (перезаписывая прежнюю)
func (gs *GridStore) Save(key string, grid *voxel.Grid) error {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return ErrClosed
	}

	data, err := snapshot.Encode(grid)
	if err != nil {
		return fmt.Errorf("ошибка кодирования сетки: %w", err)
	}

	w, h, d := grid.Dimensions()
	meta := GridMeta{
		Key:        key,
		Width:      w,
		Height:     h,
		Depth:      d,
		SolidCount: grid.SolidCount(),
		Size:       len(data),
		SavedAt:    time.Now().UTC(),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	err = gs.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(gridPrefix+key), data); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+key), metaData)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	gs.logger.Debug("Сетка %s сохранена (%d байт)", key, len(data))
	return nil
}

// Load загружает сетку; при отсутствии ключа возвращает ErrNotFound
func (gs *GridStore) Load(key string) (*voxel.Grid, error) {
	data, err := gs.get(gridPrefix + key)
	if err != nil {
		return nil, err
	}

	grid, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования сетки %s: %w", key, err)
	}
	return grid, nil
}

// Meta возвращает метаданные сохранённой сетки
func (gs *GridStore) Meta(key string) (*GridMeta, error) {
	data, err := gs.get(metaPrefix + key)
	if err != nil {
		return nil, err
	}

	var meta GridMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("ошибка десериализации метаданных: %w", err)
	}
	return &meta, nil
}

// Has проверяет наличие сетки
func (gs *GridStore) Has(key string) (bool, error) {
	_, err := gs.get(gridPrefix + key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete удаляет сетку и её метаданные
func (gs *GridStore) Delete(key string) error {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return ErrClosed
	}

	err := gs.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(gridPrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(metaPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// List возвращает метаданные всех сохранённых сеток в порядке ключей
func (gs *GridStore) List() ([]GridMeta, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return nil, ErrClosed
	}

	var metas []GridMeta
	err := gs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var meta GridMeta
				if err := json.Unmarshal(val, &meta); err != nil {
					return fmt.Errorf("метаданные %s: %w", strings.TrimPrefix(string(item.Key()), metaPrefix), err)
				}
				metas = append(metas, meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return metas, nil
}

func (gs *GridStore) get(key string) ([]byte, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return nil, ErrClosed
	}

	var data []byte
	err := gs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}
