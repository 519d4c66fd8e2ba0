package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"

	"github.com/whatsbot/whatsbot-go/pkg/session"
)

// DBFileName is the credential database inside the auth directory.
const DBFileName = "session.db"

// ErrForeignCredentials is returned when SQLStore is asked to save
// credentials it did not create.
var ErrForeignCredentials = errors.New("credentials not created by this store")

// Device is the persisted device record. It satisfies session.Credentials.
type Device struct {
	*store.Device
}

// Registered reports whether the device has been linked to a phone.
func (d *Device) Registered() bool {
	return d != nil && d.Device != nil && d.ID != nil
}

// JID returns the linked account, or "" before pairing.
func (d *Device) JID() string {
	if !d.Registered() {
		return ""
	}
	return d.ID.String()
}

// SQLStore persists device credentials in a SQLite database.
type SQLStore struct {
	path      string
	container *sqlstore.Container
}

// OpenSQLStore opens (creating if needed) the credential database in dir.
func OpenSQLStore(dir string, logger *slog.Logger) (*SQLStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create auth dir: %w", err)
	}
	path := filepath.Join(dir, DBFileName)
	container, err := sqlstore.New("sqlite3", "file:"+path+"?_foreign_keys=on", NewLogger(logger, "Database"))
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return &SQLStore{path: path, container: container}, nil
}

// Path returns the database file path.
func (s *SQLStore) Path() string {
	return s.path
}

// Load returns the stored device, or a fresh unregistered one.
func (s *SQLStore) Load(ctx context.Context) (session.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dev, err := s.container.GetFirstDevice()
	if err != nil {
		return nil, err
	}
	return &Device{Device: dev}, nil
}

// Save writes the device record. Unregistered devices have nothing worth
// keeping yet and are skipped.
func (s *SQLStore) Save(creds session.Credentials) error {
	dev, ok := creds.(*Device)
	if !ok {
		return ErrForeignCredentials
	}
	if !dev.Registered() {
		return nil
	}
	return dev.Save()
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.container.Close()
}

// Exists reports whether dir holds a credential database.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DBFileName))
	return err == nil
}

// Wipe deletes the auth directory and everything in it.
func Wipe(dir string) error {
	if dir == "" || dir == "/" {
		return fmt.Errorf("refusing to wipe %q", dir)
	}
	return os.RemoveAll(dir)
}

var _ session.CredentialStore = (*SQLStore)(nil)
