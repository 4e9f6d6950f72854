package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
	"io"
	"path/filepath"
	"syscall"
)

type Storage struct {
	// Cfg is the configuration for the storage provided to Open.
	Cfg Config
	// KV is the key-value store holding the resource index.
	KV *pebble.DB
	// ReleaseLock is a function that releases the lock on the storage file system.
	ReleaseLock func() error
}

func (s Storage) Close() error {
	var err error
	if s.KV != nil {
		err = s.KV.Close()
	}
	if s.ReleaseLock != nil {
		err = errors.CombineErrors(err, s.ReleaseLock())
	}
	return err
}

type Config struct {
	// Dirname defines the root directory the node will write its data to. Dirname
	// shouldn't be used by another other process while the node is running.
	Dirname string
	// MemBacked defines whether the node should use a memory-backed file system.
	MemBacked bool
	// Logger is the logger used by the node.
	Logger *zap.Logger
}

func Open(cfg Config) (Storage, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	fs := openBaseFS(cfg)

	s := Storage{Cfg: cfg}

	if err := fs.MkdirAll(cfg.Dirname, 0755); err != nil {
		return s, errors.Wrapf(err, "[storage] - failed to create %s", cfg.Dirname)
	}

	// Acquire the lock on the storage directory. If any other newts node is using the
	// same directory we return an error to the client.
	releaser, err := acquireLock(cfg, fs)
	if err != nil {
		return s, err
	}
	s.ReleaseLock = releaser.Close

	if s.KV, err = openKV(cfg, fs); err != nil {
		return s, errors.CombineErrors(err, s.ReleaseLock())
	}

	cfg.Logger.Info("opened storage",
		zap.String("dirname", cfg.Dirname),
		zap.Bool("memBacked", cfg.MemBacked),
	)
	return s, nil
}

const (
	kvDirname    = "kv"
	lockFileName = "LOCK"
)

func openBaseFS(cfg Config) vfs.FS {
	if cfg.MemBacked {
		return vfs.NewMem()
	}
	return vfs.Default
}

const (
	lockAlreadyAcquireMsg = `
	The storage directory is locked by another process.

	Is there another Newts node using the same directory?
	`
)

func acquireLock(cfg Config, fs vfs.FS) (io.Closer, error) {
	fName := filepath.Join(cfg.Dirname, lockFileName)
	release, err := fs.Lock(fName)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
		return release, errors.Wrap(err, lockAlreadyAcquireMsg)
	}
	return release, errors.Wrapf(err, "[storage] - failed to lock %s", fName)
}

func openKV(cfg Config, fs vfs.FS) (*pebble.DB, error) {
	dirname := filepath.Join(cfg.Dirname, kvDirname)
	db, err := pebble.Open(dirname, &pebble.Options{FS: fs})
	return db, errors.Wrap(err, "[storage] - failed to open kv")
}
