package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig configures the NATS object store mirror.
type NATSConfig struct {
	// URL is the NATS server URL. Default: nats.DefaultURL
	URL string

	// Bucket is the object store bucket name.
	Bucket string
}

// NATS mirrors artifacts into a JetStream object store bucket.
type NATS struct {
	conn   *nats.Conn
	bucket string
	store  nats.ObjectStore
	owned  bool
}

// NewNATS connects to cfg.URL and binds the bucket, creating it if needed.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Name("courier"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	m, err := NewNATSWithConn(conn, cfg.Bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	m.owned = true
	return m, nil
}

// NewNATSWithConn binds the bucket on an existing connection. The caller
// keeps ownership of conn.
func NewNATSWithConn(conn *nats.Conn, bucket string) (*NATS, error) {
	if bucket == "" {
		return nil, errors.New("nats mirror: bucket name is required")
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("nats mirror: jetstream context: %w", err)
	}

	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Narrated newsletter audio (%s).", bucket),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("nats mirror: create object store bucket '%s': %w", bucket, err)
		}
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("nats mirror: bind object store bucket '%s': %w", bucket, err)
		}
	}

	return &NATS{conn: conn, bucket: bucket, store: store}, nil
}

// Name implements artifact.Mirror.
func (n *NATS) Name() string { return "nats" }

// Put implements artifact.Mirror.
func (n *NATS) Put(_ context.Context, name string, data []byte) error {
	_, err := n.store.Put(&nats.ObjectMeta{Name: name}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("put object '%s' to bucket '%s': %w", name, n.bucket, err)
	}
	return nil
}

// Get returns the stored bytes for name.
func (n *NATS) Get(_ context.Context, name string) ([]byte, error) {
	obj, err := n.store.Get(name)
	if err != nil {
		return nil, fmt.Errorf("get object '%s' from bucket '%s': %w", name, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read object '%s': %w", name, readErr)
	}
	if closeErr != nil {
		return data, fmt.Errorf("close object '%s': %w", name, closeErr)
	}
	return data, nil
}

// Delete implements artifact.Mirror.
func (n *NATS) Delete(_ context.Context, name string) error {
	err := n.store.Delete(name)
	if err != nil && !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("delete object '%s' from bucket '%s': %w", name, n.bucket, err)
	}
	return nil
}

// Close implements artifact.Mirror.
func (n *NATS) Close() error {
	if n.owned {
		n.conn.Close()
	}
	return nil
}
